package netfp

import (
	"net/http/httptest"
	"testing"

	"github.com/roomnest-next/internal/constants"
)

func TestResolverTrustedHopsFromRight(t *testing.T) {
	resolver := NewResolver("X-Forwarded-For", 1, false)

	req := httptest.NewRequest("POST", "/auth/otp/request", nil)
	req.RemoteAddr = "10.0.0.1:443"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	fp := resolver.Resolve(req)
	if fp.IPKey != "5.6.7.8" {
		t.Fatalf("ip key want 5.6.7.8 got %s", fp.IPKey)
	}
	if fp.SubnetKey != "5.6.7.0/24" {
		t.Fatalf("subnet key want 5.6.7.0/24 got %s", fp.SubnetKey)
	}
}

func TestResolverDeeperHops(t *testing.T) {
	resolver := NewResolver("X-Forwarded-For", 2, false)

	req := httptest.NewRequest("POST", "/auth/otp/request", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8, 9.9.9.9")

	fp := resolver.Resolve(req)
	if fp.IPKey != "5.6.7.8" {
		t.Fatalf("ip key want 5.6.7.8 got %s", fp.IPKey)
	}
}

func TestResolverHopsBeyondChainIsUnknown(t *testing.T) {
	resolver := NewResolver("X-Forwarded-For", 3, false)

	req := httptest.NewRequest("POST", "/auth/otp/request", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	fp := resolver.Resolve(req)
	if !fp.Unknown() {
		t.Fatalf("fingerprint want unknown got %s", fp.IPKey)
	}
}

func TestResolverMalformedEntryIsUnknown(t *testing.T) {
	resolver := NewResolver("X-Forwarded-For", 1, false)

	cases := []string{
		"not-an-ip",
		"999.999.1.1",
		"1.2.3.4, garbage",
	}
	for _, value := range cases {
		req := httptest.NewRequest("POST", "/auth/otp/request", nil)
		req.Header.Set("X-Forwarded-For", value)
		fp := resolver.Resolve(req)
		if !fp.Unknown() {
			t.Fatalf("header %q want unknown got %s", value, fp.IPKey)
		}
		if fp.SubnetKey != constants.NetworkKeyUnknown {
			t.Fatalf("header %q subnet want unknown got %s", value, fp.SubnetKey)
		}
	}
}

func TestResolverForwardedSyntaxVariants(t *testing.T) {
	resolver := NewResolver("Forwarded-Client", 1, false)

	cases := map[string]string{
		`for=192.0.2.60`:          "192.0.2.60",
		`for="192.0.2.60:8080"`:   "192.0.2.60",
		`for="[2001:db8::1]:443"`: "2001:db8::1",
		`2001:db8::1%eth0`:        "2001:db8::1",
	}
	for value, want := range cases {
		req := httptest.NewRequest("POST", "/auth/otp/request", nil)
		req.Header.Set("Forwarded-Client", value)
		fp := resolver.Resolve(req)
		if fp.IPKey != want {
			t.Fatalf("header %q ip want %s got %s", value, want, fp.IPKey)
		}
	}
}

func TestResolverSameSubnetSharesKey(t *testing.T) {
	resolver := NewResolver("X-Forwarded-For", 1, false)

	first := httptest.NewRequest("POST", "/auth/otp/request", nil)
	first.Header.Set("X-Forwarded-For", "10.1.2.3")
	second := httptest.NewRequest("POST", "/auth/otp/request", nil)
	second.Header.Set("X-Forwarded-For", "10.1.2.99")

	fpA := resolver.Resolve(first)
	fpB := resolver.Resolve(second)
	if fpA.SubnetKey != fpB.SubnetKey {
		t.Fatalf("subnet keys want equal got %s / %s", fpA.SubnetKey, fpB.SubnetKey)
	}
	if fpA.SubnetKey != "10.1.2.0/24" {
		t.Fatalf("subnet key want 10.1.2.0/24 got %s", fpA.SubnetKey)
	}
}

func TestResolverIPv6SubnetIs64(t *testing.T) {
	resolver := NewResolver("X-Forwarded-For", 1, false)

	req := httptest.NewRequest("POST", "/auth/otp/request", nil)
	req.Header.Set("X-Forwarded-For", "2001:db8:1:2:3:4:5:6")

	fp := resolver.Resolve(req)
	if fp.SubnetKey != "2001:db8:1:2::/64" {
		t.Fatalf("subnet key want 2001:db8:1:2::/64 got %s", fp.SubnetKey)
	}
}

func TestResolverNoHeaderUsesRemoteAddr(t *testing.T) {
	resolver := NewResolver("X-Real-Client", 1, false)

	req := httptest.NewRequest("POST", "/auth/otp/request", nil)
	req.RemoteAddr = "192.0.2.10:54321"

	fp := resolver.Resolve(req)
	if fp.IPKey != "192.0.2.10" {
		t.Fatalf("ip key want 192.0.2.10 got %s", fp.IPKey)
	}
}
