package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/roomnest-next/internal/config"
	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/netfp"
	"github.com/roomnest-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type captureSender struct {
	lastEmail string
	lastCode  string
	lastLink  string
	sendErr   error
	sent      int
}

func (s *captureSender) SendLoginCode(toEmail, code, magicLink string, expireMinutes int, locale string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.lastEmail = toEmail
	s.lastCode = code
	s.lastLink = magicLink
	s.sent++
	return nil
}

func testAuthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.BaseURL = "http://localhost:8080"
	cfg.Auth.Otp.Secret = "test-otp-secret-0123456789abcdef-0123"
	cfg.Auth.Otp.CodeLength = 6
	cfg.Auth.Otp.ExpireMinutes = 10
	cfg.Auth.Otp.MaxAttempts = 5
	cfg.Auth.Limits.RequestPerEmail = config.LimitWindow{WindowMinutes: 10, MaxHits: 3}
	cfg.Auth.Limits.RequestPerIP = config.LimitWindow{WindowMinutes: 10, MaxHits: 10}
	cfg.Auth.Limits.RequestPerSubnet = config.LimitWindow{WindowMinutes: 10, MaxHits: 30}
	cfg.Auth.Limits.VerifyPerEmail = config.LimitWindow{WindowMinutes: 10, MaxHits: 10}
	cfg.Auth.Limits.VerifyPerIP = config.LimitWindow{WindowMinutes: 10, MaxHits: 30}
	cfg.Auth.Limits.VerifyPerSubnet = config.LimitWindow{WindowMinutes: 10, MaxHits: 100}
	cfg.Auth.Limits.VerifyPerEmail1h = config.LimitWindow{WindowMinutes: 60, MaxHits: 30}
	cfg.Auth.Limits.VerifyPerIP1h = config.LimitWindow{WindowMinutes: 60, MaxHits: 100}
	return cfg
}

func setupAuthOtpServiceTest(t *testing.T) (*AuthOtpService, *captureSender, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_otp_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.OtpRecord{},
		&models.RateLimitBucket{},
		&models.SecurityAuditEvent{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	sender := &captureSender{}
	audit := NewSecurityAuditService(repository.NewSecurityAuditRepository(db), nil)
	svc := NewAuthOtpService(
		testAuthConfig(),
		repository.NewUserRepository(db),
		repository.NewOtpRecordRepository(db),
		NewRateLimiter(repository.NewRateLimitRepository(db)),
		sender,
		audit,
	)
	return svc, sender, db
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:  email,
		Role:   role,
		Status: constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func testNetwork() netfp.Fingerprint {
	return netfp.Fingerprint{IPKey: "203.0.113.9", SubnetKey: "203.0.113.0/24"}
}

func TestRequestLoginOtpHappyPath(t *testing.T) {
	svc, sender, db := setupAuthOtpServiceTest(t)
	createTestUser(t, db, "student@example.com", constants.UserRoleWhitelisted)

	result, err := svc.RequestLoginOtp(RequestOtpInput{
		Email:   "Student@Example.com ",
		Network: testNetwork(),
	})
	if err != nil {
		t.Fatalf("request otp failed: %v", err)
	}
	if result.MagicLinkState == "" {
		t.Fatal("magic link state want non-empty")
	}
	if sender.lastEmail != "student@example.com" {
		t.Fatalf("sender email want student@example.com got %s", sender.lastEmail)
	}
	if len(sender.lastCode) != 6 {
		t.Fatalf("code length want 6 got %d", len(sender.lastCode))
	}
	if sender.lastLink == "" {
		t.Fatal("magic link want non-empty")
	}

	// 明文验证码不落库
	var record models.OtpRecord
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("load record failed: %v", err)
	}
	if record.CodeHash == sender.lastCode {
		t.Fatal("code hash must not equal raw code")
	}
	if len(record.CodeHash) != 64 {
		t.Fatalf("code hash want 64 hex chars got %d", len(record.CodeHash))
	}
}

func TestRequestLoginOtpNotAllowedForVisitorAndUnknown(t *testing.T) {
	svc, _, db := setupAuthOtpServiceTest(t)
	createTestUser(t, db, "visitor@example.com", constants.UserRoleVisitor)

	if _, err := svc.RequestLoginOtp(RequestOtpInput{Email: "visitor@example.com", Network: testNetwork()}); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("visitor want ErrNotAllowed got %v", err)
	}
	if _, err := svc.RequestLoginOtp(RequestOtpInput{Email: "nobody@example.com", Network: testNetwork()}); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("unknown email want ErrNotAllowed got %v", err)
	}
}

func TestRequestLoginOtpSupersedesPreviousCode(t *testing.T) {
	svc, sender, db := setupAuthOtpServiceTest(t)
	createTestUser(t, db, "student@example.com", constants.UserRoleWhitelisted)

	if _, err := svc.RequestLoginOtp(RequestOtpInput{Email: "student@example.com", Network: testNetwork()}); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	firstCode := sender.lastCode

	if _, err := svc.RequestLoginOtp(RequestOtpInput{Email: "student@example.com", Network: testNetwork()}); err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	secondCode := sender.lastCode

	// 旧验证码已作废
	if firstCode != secondCode {
		if _, err := svc.VerifyLoginOtp(VerifyOtpInput{Email: "student@example.com", Code: firstCode, Network: testNetwork()}); !errors.Is(err, ErrCodeInvalidOrExpired) {
			t.Fatalf("old code want ErrCodeInvalidOrExpired got %v", err)
		}
	}

	result, err := svc.VerifyLoginOtp(VerifyOtpInput{Email: "student@example.com", Code: secondCode, Network: testNetwork()})
	if err != nil {
		t.Fatalf("new code verify failed: %v", err)
	}
	if result.User == nil || result.User.Email != "student@example.com" {
		t.Fatal("verify result user mismatch")
	}

	var count int64
	db.Model(&models.OtpRecord{}).
		Where("email_norm = ? AND consumed_at IS NULL AND superseded_at IS NULL", "student@example.com").
		Count(&count)
	if count != 0 {
		t.Fatalf("active records after login want 0 got %d", count)
	}
}

func TestVerifyLoginOtpAttemptCeilingIsSticky(t *testing.T) {
	svc, sender, db := setupAuthOtpServiceTest(t)
	createTestUser(t, db, "student@example.com", constants.UserRoleWhitelisted)

	if _, err := svc.RequestLoginOtp(RequestOtpInput{Email: "student@example.com", Network: testNetwork()}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	correct := sender.lastCode
	wrong := "000000"
	if wrong == correct {
		wrong = "000001"
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.VerifyLoginOtp(VerifyOtpInput{Email: "student@example.com", Code: wrong, Network: testNetwork()}); !errors.Is(err, ErrCodeInvalidOrExpired) {
			t.Fatalf("wrong attempt %d want ErrCodeInvalidOrExpired got %v", i+1, err)
		}
	}

	// 次数耗尽后即使验证码正确也拒绝
	if _, err := svc.VerifyLoginOtp(VerifyOtpInput{Email: "student@example.com", Code: correct, Network: testNetwork()}); !errors.Is(err, ErrCodeInvalidOrExpired) {
		t.Fatalf("exhausted correct code want ErrCodeInvalidOrExpired got %v", err)
	}
}

func TestVerifyLoginOtpSingleUse(t *testing.T) {
	svc, sender, db := setupAuthOtpServiceTest(t)
	createTestUser(t, db, "student@example.com", constants.UserRoleWhitelisted)

	if _, err := svc.RequestLoginOtp(RequestOtpInput{Email: "student@example.com", Network: testNetwork()}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	code := sender.lastCode

	if _, err := svc.VerifyLoginOtp(VerifyOtpInput{Email: "student@example.com", Code: code, Network: testNetwork()}); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if _, err := svc.VerifyLoginOtp(VerifyOtpInput{Email: "student@example.com", Code: code, Network: testNetwork()}); !errors.Is(err, ErrCodeInvalidOrExpired) {
		t.Fatalf("second verify want ErrCodeInvalidOrExpired got %v", err)
	}
}

func TestRequestLoginOtpRateLimitedPerEmail(t *testing.T) {
	svc, _, db := setupAuthOtpServiceTest(t)
	createTestUser(t, db, "student@example.com", constants.UserRoleWhitelisted)

	for i := 0; i < 3; i++ {
		if _, err := svc.RequestLoginOtp(RequestOtpInput{Email: "student@example.com", Network: testNetwork()}); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}

	_, err := svc.RequestLoginOtp(RequestOtpInput{Email: "student@example.com", Network: testNetwork()})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("fourth request want ErrRateLimited got %v", err)
	}
	if RetryAfterSeconds(err) <= 0 {
		t.Fatalf("retry after want > 0 got %d", RetryAfterSeconds(err))
	}
}

func TestVerifyMagicLinkStateBinding(t *testing.T) {
	svc, sender, db := setupAuthOtpServiceTest(t)
	createTestUser(t, db, "student@example.com", constants.UserRoleWhitelisted)

	result, err := svc.RequestLoginOtp(RequestOtpInput{Email: "student@example.com", Network: testNetwork()})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	claims, err := svc.ParseMagicLinkToken(extractTokenFromLink(t, sender.lastLink))
	if err != nil {
		t.Fatalf("parse magic link token failed: %v", err)
	}
	if claims.State != result.MagicLinkState {
		t.Fatalf("token state want %s got %s", result.MagicLinkState, claims.State)
	}

	token := extractTokenFromLink(t, sender.lastLink)

	// Cookie state 不匹配：拒绝且不消耗尝试次数
	if _, err := svc.VerifyMagicLink(token, "another-browser-state", testNetwork(), ""); !errors.Is(err, ErrMagicLinkStateMismatch) {
		t.Fatalf("state mismatch want ErrMagicLinkStateMismatch got %v", err)
	}
	var record models.OtpRecord
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("load record failed: %v", err)
	}
	if record.Attempts != 0 {
		t.Fatalf("attempts after state mismatch want 0 got %d", record.Attempts)
	}

	verified, err := svc.VerifyMagicLink(token, result.MagicLinkState, testNetwork(), "")
	if err != nil {
		t.Fatalf("magic link verify failed: %v", err)
	}
	if verified.User == nil || verified.User.Email != "student@example.com" {
		t.Fatal("magic link verify user mismatch")
	}
}

func TestVerifyLoginOtpRejectsBadFormats(t *testing.T) {
	svc, _, _ := setupAuthOtpServiceTest(t)

	if _, err := svc.VerifyLoginOtp(VerifyOtpInput{Email: "not-an-email", Code: "123456", Network: testNetwork()}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad email want ErrInvalidEmail got %v", err)
	}
	cases := []string{"", "12345", "1234567", "12345a"}
	for _, code := range cases {
		if _, err := svc.VerifyLoginOtp(VerifyOtpInput{Email: "student@example.com", Code: code, Network: testNetwork()}); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("code %q want ErrInvalidCode got %v", code, err)
		}
	}
}

func TestRequestLoginOtpDeliveryErrors(t *testing.T) {
	svc, sender, db := setupAuthOtpServiceTest(t)
	createTestUser(t, db, "student@example.com", constants.UserRoleWhitelisted)

	sender.sendErr = ErrEmailServiceDisabled
	if _, err := svc.RequestLoginOtp(RequestOtpInput{Email: "student@example.com", Network: testNetwork()}); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("disabled sender want ErrEmailServiceDisabled got %v", err)
	}

	sender.sendErr = errors.New("smtp: connection reset")
	if _, err := svc.RequestLoginOtp(RequestOtpInput{Email: "student@example.com", Network: testNetwork()}); !errors.Is(err, ErrEmailSendFailed) {
		t.Fatalf("smtp failure want ErrEmailSendFailed got %v", err)
	}
}

func extractTokenFromLink(t *testing.T, link string) string {
	t.Helper()
	const marker = "token="
	idx := len(link)
	for i := 0; i+len(marker) <= len(link); i++ {
		if link[i:i+len(marker)] == marker {
			idx = i + len(marker)
			break
		}
	}
	if idx >= len(link) {
		t.Fatalf("magic link %q has no token", link)
	}
	return link[idx:]
}
