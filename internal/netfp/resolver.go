package netfp

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/logger"
)

const defaultTrustedHeader = "X-Forwarded-For"

// Fingerprint 请求方网络指纹
// IPKey 为单 IP 维度键，SubnetKey 为子网维度键（v4 取 /24，v6 取 /64）。
// 解析失败时两者都是 unknown 哨兵值，照常参与限流计数。
type Fingerprint struct {
	IPKey     string
	SubnetKey string
}

// Unknown 判断指纹是否为未知
func (f Fingerprint) Unknown() bool {
	return f.IPKey == constants.NetworkKeyUnknown
}

// Resolver 网络指纹解析器
// 只信任一个代理头，按从右往左的跳数取客户端地址，
// 头部左侧的内容全部视为可伪造。
type Resolver struct {
	trustedHeader string
	trustedHops   int
	releaseMode   bool
	warnOnce      sync.Once
}

// NewResolver 创建解析器
func NewResolver(trustedHeader string, trustedHops int, releaseMode bool) *Resolver {
	header := strings.TrimSpace(trustedHeader)
	if trustedHops < 1 {
		trustedHops = 1
	}
	return &Resolver{
		trustedHeader: header,
		trustedHops:   trustedHops,
		releaseMode:   releaseMode,
	}
}

// Resolve 解析请求网络指纹
func (r *Resolver) Resolve(req *http.Request) Fingerprint {
	if req == nil {
		return unknownFingerprint()
	}

	header := r.trustedHeader
	if header == "" {
		header = defaultTrustedHeader
		if r.releaseMode {
			r.warnOnce.Do(func() {
				logger.Warnw("trusted_proxy_header_not_configured",
					"fallback", defaultTrustedHeader,
				)
			})
		}
	}

	if raw := strings.TrimSpace(req.Header.Get(header)); raw != "" {
		entries := splitForwardedEntries(raw)
		// 从右数第 trustedHops 个条目才是可信的客户端地址
		idx := len(entries) - r.trustedHops
		if idx < 0 || idx >= len(entries) {
			return unknownFingerprint()
		}
		return fingerprintFromHost(entries[idx])
	}

	// 无代理头时按直连处理
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	return fingerprintFromHost(host)
}

func unknownFingerprint() Fingerprint {
	return Fingerprint{
		IPKey:     constants.NetworkKeyUnknown,
		SubnetKey: constants.NetworkKeyUnknown,
	}
}

func splitForwardedEntries(raw string) []string {
	parts := strings.Split(raw, ",")
	entries := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			entries = append(entries, trimmed)
		}
	}
	return entries
}

// fingerprintFromHost 将单个地址条目归一化为指纹
// 兼容 Forwarded 头的 for= 语法、引号、IPv6 方括号、端口与 zone 后缀。
func fingerprintFromHost(entry string) Fingerprint {
	host := strings.TrimSpace(entry)
	if strings.HasPrefix(strings.ToLower(host), "for=") {
		host = host[len("for="):]
	}
	host = strings.Trim(host, `"`)
	if parsed, _, err := net.SplitHostPort(host); err == nil {
		host = parsed
	}
	host = strings.Trim(host, "[]")
	if zone := strings.IndexByte(host, '%'); zone >= 0 {
		host = host[:zone]
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return unknownFingerprint()
	}

	return Fingerprint{
		IPKey:     ip.String(),
		SubnetKey: subnetKey(ip),
	}
}

func subnetKey(ip net.IP) string {
	if v4 := ip.To4(); v4 != nil {
		masked := v4.Mask(net.CIDRMask(24, 32))
		return masked.String() + "/24"
	}
	masked := ip.Mask(net.CIDRMask(64, 128))
	return masked.String() + "/64"
}
