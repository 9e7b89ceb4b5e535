package service

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/roomnest-next/internal/config"
	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/logger"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/netfp"
	"github.com/roomnest-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginCodeSender 登录验证码发送接口
type LoginCodeSender interface {
	SendLoginCode(toEmail, code, magicLink string, expireMinutes int, locale string) error
}

// AuthOtpService 邮箱验证码登录服务
// 服务层永远返回真实结果；防枚举伪装（把 not_allowed 渲染成成功、
// 响应时间下限）由 HTTP 层负责，审计事件记录真实 outcome。
type AuthOtpService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	otpRepo  repository.OtpRecordRepository
	limiter  *RateLimiter
	sender   LoginCodeSender
	audit    *SecurityAuditService
	now      func() time.Time
}

// NewAuthOtpService 创建验证码登录服务
func NewAuthOtpService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	otpRepo repository.OtpRecordRepository,
	limiter *RateLimiter,
	sender LoginCodeSender,
	audit *SecurityAuditService,
) *AuthOtpService {
	return &AuthOtpService{
		cfg:      cfg,
		userRepo: userRepo,
		otpRepo:  otpRepo,
		limiter:  limiter,
		sender:   sender,
		audit:    audit,
		now:      time.Now,
	}
}

// RequestOtpInput 请求验证码输入
type RequestOtpInput struct {
	Email   string
	Network netfp.Fingerprint
	Locale  string
}

// RequestOtpResult 请求验证码结果
type RequestOtpResult struct {
	MagicLinkState string
	ExpiresAt      time.Time
}

// VerifyOtpInput 验证验证码输入
type VerifyOtpInput struct {
	Email        string
	Code         string
	Network      netfp.Fingerprint
	Locale       string
	ViaMagicLink bool
}

// VerifyOtpResult 验证验证码结果
type VerifyOtpResult struct {
	User *models.User
}

// MagicLinkClaims 魔法链接 Token 声明
// Token 本身就是凭据（和邮件里的验证码等价），签名防篡改，
// state 与浏览器 Cookie 绑定防止链接被转发使用。
type MagicLinkClaims struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	State string `json:"state"`
	jwt.RegisteredClaims
}

// RequestLoginOtp 请求登录验证码
func (s *AuthOtpService) RequestLoginOtp(input RequestOtpInput) (*RequestOtpResult, error) {
	emailNorm, err := normalizeEmail(input.Email)
	if err != nil {
		s.record(constants.AuditEventOtpRequest, constants.AuditOutcomeInvalidEmail, "", input.Network, "")
		return nil, ErrInvalidEmail
	}

	if err := s.limiter.HitAll(s.requestRules(emailNorm, input.Network)); err != nil {
		return nil, s.recordLimitError(constants.AuditEventOtpRequest, emailNorm, input.Network, err)
	}

	user, err := s.userRepo.GetByEmail(emailNorm)
	if err != nil {
		s.record(constants.AuditEventOtpRequest, constants.AuditOutcomeDBUnavailable, emailNorm, input.Network, "")
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if !loginEligible(user) {
		s.record(constants.AuditEventOtpRequest, constants.AuditOutcomeNotAllowed, emailNorm, input.Network, "")
		return nil, ErrNotAllowed
	}

	code, err := randomNumericCode(s.codeLength())
	if err != nil {
		s.record(constants.AuditEventOtpRequest, constants.AuditOutcomeDBUnavailable, emailNorm, input.Network, "code_generation_failed")
		return nil, err
	}
	state := uuid.NewString()
	now := s.now().UTC()
	expiresAt := now.Add(time.Duration(s.expireMinutes()) * time.Minute)

	record := &models.OtpRecord{
		EmailNorm:      emailNorm,
		CodeHash:       s.hashCode(emailNorm, code),
		MagicLinkState: state,
		MaxAttempts:    s.maxAttempts(),
		ExpiresAt:      expiresAt,
		RequestIPKey:   input.Network.IPKey,
	}
	if err := s.otpRepo.CreateSuperseding(record); err != nil {
		s.record(constants.AuditEventOtpRequest, constants.AuditOutcomeDBUnavailable, emailNorm, input.Network, "")
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}

	magicLink, err := s.buildMagicLink(emailNorm, code, state, expiresAt)
	if err != nil {
		s.record(constants.AuditEventOtpRequest, constants.AuditOutcomeDeliveryFailed, emailNorm, input.Network, "magic_link_build_failed")
		return nil, fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	if err := s.sender.SendLoginCode(emailNorm, code, magicLink, s.expireMinutes(), input.Locale); err != nil {
		if errors.Is(err, ErrEmailServiceDisabled) || errors.Is(err, ErrEmailServiceNotConfigured) {
			s.record(constants.AuditEventOtpRequest, constants.AuditOutcomeDeliveryUnavailable, emailNorm, input.Network, "")
			return nil, err
		}
		s.record(constants.AuditEventOtpRequest, constants.AuditOutcomeDeliveryFailed, emailNorm, input.Network, "")
		return nil, fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	s.record(constants.AuditEventOtpRequest, constants.AuditOutcomeOK, emailNorm, input.Network, "")
	return &RequestOtpResult{MagicLinkState: state, ExpiresAt: expiresAt}, nil
}

// VerifyLoginOtp 验证登录验证码
func (s *AuthOtpService) VerifyLoginOtp(input VerifyOtpInput) (*VerifyOtpResult, error) {
	emailNorm, err := normalizeEmail(input.Email)
	if err != nil {
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidEmail, "", input.Network, "")
		return nil, ErrInvalidEmail
	}
	if !s.codeFormatValid(input.Code) {
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidCode, emailNorm, input.Network, "")
		return nil, ErrInvalidCode
	}

	if err := s.limiter.HitAll(s.verifyRules(emailNorm, input.Network)); err != nil {
		return nil, s.recordLimitError(constants.AuditEventOtpVerify, emailNorm, input.Network, err)
	}

	now := s.now().UTC()
	record, err := s.otpRepo.GetActiveByEmail(emailNorm, now)
	if err != nil {
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeDBUnavailable, emailNorm, input.Network, "")
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	if record == nil {
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidOrExpired, emailNorm, input.Network, "no_active_code")
		return nil, ErrCodeInvalidOrExpired
	}
	// 尝试次数耗尽后该记录粘滞失效，直到过期或被新验证码替换
	if record.Exhausted() {
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidOrExpired, emailNorm, input.Network, "attempts_exhausted")
		return nil, ErrCodeInvalidOrExpired
	}

	if !s.codeMatches(record.CodeHash, emailNorm, input.Code) {
		if _, err := s.otpRepo.IncrementAttempts(record.ID); err != nil {
			logger.Warnw("otp_attempt_increment_failed", "record_id", record.ID, "error", err)
		}
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidOrExpired, emailNorm, input.Network, "code_mismatch")
		return nil, ErrCodeInvalidOrExpired
	}

	user, err := s.userRepo.GetByEmail(emailNorm)
	if err != nil {
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeDBUnavailable, emailNorm, input.Network, "")
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}
	// 资格在验证时复核：发码后被降级或禁用的账号不能完成登录
	if !loginEligible(user) {
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeNotAllowed, emailNorm, input.Network, "")
		return nil, ErrNotAllowed
	}

	if err := s.otpRepo.MarkConsumed(record.ID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 并发验证同一验证码，只有第一个成功
			s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidOrExpired, emailNorm, input.Network, "already_consumed")
			return nil, ErrCodeInvalidOrExpired
		}
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeDBUnavailable, emailNorm, input.Network, "")
		return nil, fmt.Errorf("%w: %v", ErrDBUnavailable, err)
	}

	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		logger.Warnw("touch_last_login_failed", "user_id", user.ID, "error", err)
	}

	detail := ""
	if input.ViaMagicLink {
		detail = "magic_link"
	}
	s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeOK, emailNorm, input.Network, detail)
	return &VerifyOtpResult{User: user}, nil
}

// VerifyMagicLink 验证魔法链接
// cookieState 来自发起请求的浏览器 Cookie；state 不匹配时直接拒绝，
// 不消耗验证码尝试次数。
func (s *AuthOtpService) VerifyMagicLink(token, cookieState string, network netfp.Fingerprint, locale string) (*VerifyOtpResult, error) {
	claims, err := s.ParseMagicLinkToken(token)
	if err != nil {
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidOrExpired, "", network, "magic_link_invalid")
		return nil, ErrCodeInvalidOrExpired
	}

	if subtle.ConstantTimeCompare([]byte(claims.State), []byte(strings.TrimSpace(cookieState))) != 1 {
		s.record(constants.AuditEventOtpVerify, constants.AuditOutcomeInvalidOrExpired, claims.Email, network, "magic_link_state_mismatch")
		return nil, ErrMagicLinkStateMismatch
	}

	return s.VerifyLoginOtp(VerifyOtpInput{
		Email:        claims.Email,
		Code:         claims.Code,
		Network:      network,
		Locale:       locale,
		ViaMagicLink: true,
	})
}

// ParseMagicLinkToken 解析魔法链接 Token
func (s *AuthOtpService) ParseMagicLinkToken(token string) (*MagicLinkClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &MagicLinkClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.otpSecret()), nil
	})
	if err != nil {
		return nil, err
	}
	if result, ok := parsed.Claims.(*MagicLinkClaims); ok && parsed.Valid {
		return result, nil
	}
	return nil, ErrCodeInvalidOrExpired
}

func (s *AuthOtpService) buildMagicLink(emailNorm, code, state string, expiresAt time.Time) (string, error) {
	claims := MagicLinkClaims{
		Email: emailNorm,
		Code:  code,
		State: state,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.otpSecret()))
	if err != nil {
		return "", err
	}
	base := strings.TrimRight(strings.TrimSpace(s.cfg.App.BaseURL), "/")
	return fmt.Sprintf("%s/api/v1/auth/otp/magic?token=%s", base, url.QueryEscape(token)), nil
}

// hashCode 计算验证码哈希
// HMAC(secret, email|code)：明文验证码从不落库，绑定邮箱防止哈希跨邮箱复用。
func (s *AuthOtpService) hashCode(emailNorm, code string) string {
	mac := hmac.New(sha256.New, []byte(s.otpSecret()))
	mac.Write([]byte(emailNorm))
	mac.Write([]byte("|"))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *AuthOtpService) codeMatches(storedHash, emailNorm, code string) bool {
	computed := s.hashCode(emailNorm, code)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(computed)) == 1
}

func (s *AuthOtpService) codeFormatValid(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != s.codeLength() {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (s *AuthOtpService) requestRules(emailNorm string, fp netfp.Fingerprint) []RateRule {
	limits := s.cfg.Auth.Limits
	return []RateRule{
		ruleFrom(constants.RateScopeOtpRequestEmail, emailNorm, limits.RequestPerEmail),
		ruleFrom(constants.RateScopeOtpRequestIP, fp.IPKey, limits.RequestPerIP),
		ruleFrom(constants.RateScopeOtpRequestSubnet, fp.SubnetKey, limits.RequestPerSubnet),
	}
}

func (s *AuthOtpService) verifyRules(emailNorm string, fp netfp.Fingerprint) []RateRule {
	limits := s.cfg.Auth.Limits
	return []RateRule{
		ruleFrom(constants.RateScopeOtpVerifyEmail, emailNorm, limits.VerifyPerEmail),
		ruleFrom(constants.RateScopeOtpVerifyIP, fp.IPKey, limits.VerifyPerIP),
		ruleFrom(constants.RateScopeOtpVerifySubnet, fp.SubnetKey, limits.VerifyPerSubnet),
		ruleFrom(constants.RateScopeOtpVerifyEmail1h, emailNorm, limits.VerifyPerEmail1h),
		ruleFrom(constants.RateScopeOtpVerifyIP1h, fp.IPKey, limits.VerifyPerIP1h),
	}
}

func ruleFrom(scope, key string, window config.LimitWindow) RateRule {
	return RateRule{
		Scope:  scope,
		Key:    key,
		Window: time.Duration(window.WindowMinutes) * time.Minute,
		Max:    window.MaxHits,
	}
}

func (s *AuthOtpService) recordLimitError(eventType, emailNorm string, fp netfp.Fingerprint, err error) error {
	if errors.Is(err, ErrRateLimited) {
		s.record(eventType, constants.AuditOutcomeRateLimited, emailNorm, fp,
			fmt.Sprintf("retry_after=%d", RetryAfterSeconds(err)))
		return err
	}
	s.record(eventType, constants.AuditOutcomeDBUnavailable, emailNorm, fp, "rate_limit_storage")
	return err
}

func (s *AuthOtpService) record(eventType, outcome, emailNorm string, fp netfp.Fingerprint, detail string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(AuditEventInput{
		EventType: eventType,
		Outcome:   outcome,
		EmailNorm: emailNorm,
		IPKey:     fp.IPKey,
		SubnetKey: fp.SubnetKey,
		Detail:    detail,
	})
}

func (s *AuthOtpService) otpSecret() string {
	return s.cfg.Auth.Otp.Secret
}

func (s *AuthOtpService) codeLength() int {
	if n := s.cfg.Auth.Otp.CodeLength; n > 0 {
		return n
	}
	return 6
}

func (s *AuthOtpService) expireMinutes() int {
	if n := s.cfg.Auth.Otp.ExpireMinutes; n > 0 {
		return n
	}
	return 10
}

func (s *AuthOtpService) maxAttempts() int {
	if n := s.cfg.Auth.Otp.MaxAttempts; n > 0 {
		return n
	}
	return 5
}

// loginEligible 判断账号是否允许验证码登录
// visitor 角色没有登录资格，禁用账号一律拒绝。
func loginEligible(user *models.User) bool {
	if user == nil {
		return false
	}
	if user.Status != constants.UserStatusActive {
		return false
	}
	switch user.Role {
	case constants.UserRoleWhitelisted, constants.UserRoleAdmin:
		return true
	default:
		return false
	}
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// NormalizeEmail 统一邮箱格式
func NormalizeEmail(email string) (string, error) {
	return normalizeEmail(email)
}

func randomNumericCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String(), nil
}
