package public

import (
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/http/response"
	"github.com/roomnest-next/internal/i18n"
	"github.com/roomnest-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLoginOtpRequest 请求登录验证码
type RequestLoginOtpRequest struct {
	Email          string                `json:"email" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// VerifyLoginOtpRequest 验证登录验证码
type VerifyLoginOtpRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// RequestLoginOtp 请求邮箱登录验证码
// 对外契约：无论邮箱是否有登录资格，响应形状完全一致（防枚举）。
// 真实结果只体现在审计流水里。
func (h *Handler) RequestLoginOtp(c *gin.Context) {
	start := time.Now()

	var req RequestLoginOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if h.CaptchaService != nil {
		if captchaErr := h.CaptchaService.Verify(constants.CaptchaSceneOtpRequest, req.CaptchaPayload.toServicePayload()); captchaErr != nil {
			switch {
			case errors.Is(captchaErr, service.ErrCaptchaRequired):
				respondError(c, response.CodeBadRequest, "error.captcha_required", nil)
			case errors.Is(captchaErr, service.ErrCaptchaInvalid):
				respondError(c, response.CodeBadRequest, "error.captcha_invalid", nil)
			default:
				respondError(c, response.CodeInternal, "error.internal", captchaErr)
			}
			return
		}
	}

	locale := i18n.ResolveLocale(c)
	result, err := h.AuthOtpService.RequestLoginOtp(service.RequestOtpInput{
		Email:   req.Email,
		Network: h.Network.Resolve(c.Request),
		Locale:  locale,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotAllowed) {
			// 无登录资格的邮箱渲染成与成功完全同形的响应
			// Cookie 里放诱饵 state，耗时抬到下限
			h.enforceTimingFloor(start)
			h.setMagicStateCookie(c, uuid.NewString())
			h.respondOtpSent(c, locale)
			return
		}
		h.enforceTimingFloor(start)
		h.respondOtpRequestError(c, err)
		return
	}

	h.enforceTimingFloor(start)
	h.setMagicStateCookie(c, result.MagicLinkState)
	h.respondOtpSent(c, locale)
}

// VerifyLoginOtp 验证邮箱登录验证码
func (h *Handler) VerifyLoginOtp(c *gin.Context) {
	start := time.Now()

	var req VerifyLoginOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	locale := i18n.ResolveLocale(c)
	result, err := h.AuthOtpService.VerifyLoginOtp(service.VerifyOtpInput{
		Email:   req.Email,
		Code:    req.Code,
		Network: h.Network.Resolve(c.Request),
		Locale:  locale,
	})
	h.enforceTimingFloor(start)
	if err != nil {
		h.respondOtpVerifyError(c, err)
		return
	}

	h.completeLogin(c, result)
}

// VerifyMagicLinkLogin 魔法链接登录入口
// 链接里的 state 必须与发起请求时种下的 Cookie 匹配；不匹配时
// 直接跳回登录页，不消耗验证码尝试次数。
func (h *Handler) VerifyMagicLinkLogin(c *gin.Context) {
	start := time.Now()

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.Redirect(http.StatusFound, h.loginRedirectURL("failed"))
		return
	}

	cookieState, _ := c.Cookie(constants.MagicLinkStateCookieName)
	locale := i18n.ResolveLocale(c)
	result, err := h.AuthOtpService.VerifyMagicLink(token, cookieState, h.Network.Resolve(c.Request), locale)
	h.enforceTimingFloor(start)
	if err != nil {
		requestLog(c).Warnw("magic_link_login_failed", "error", err)
		c.Redirect(http.StatusFound, h.loginRedirectURL("failed"))
		return
	}

	token, expiresAt, err := h.SessionService.IssueToken(result.User)
	if err != nil {
		requestLog(c).Errorw("session_issue_failed", "user_id", result.User.ID, "error", err)
		c.Redirect(http.StatusFound, h.loginRedirectURL("failed"))
		return
	}
	h.setSessionCookie(c, token, expiresAt)
	h.clearMagicStateCookie(c)
	c.Redirect(http.StatusFound, h.loginRedirectURL("ok"))
}

// Logout 退出登录
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.SessionCookieName, "", -1, "/", h.SessionService.CookieDomain(), h.SessionService.CookieSecure(), true)
	response.Success(c, gin.H{"logged_out": true})
}

func (h *Handler) completeLogin(c *gin.Context, result *service.VerifyOtpResult) {
	token, expiresAt, err := h.SessionService.IssueToken(result.User)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	h.setSessionCookie(c, token, expiresAt)
	h.clearMagicStateCookie(c)
	response.Success(c, gin.H{
		"user": gin.H{
			"id":           result.User.ID,
			"email":        result.User.Email,
			"display_name": result.User.DisplayName,
			"role":         result.User.Role,
			"locale":       result.User.Locale,
		},
		"expires_at": expiresAt,
	})
}

// respondOtpSent 成功与伪装成功共用的响应出口，形状必须保持一致。
func (h *Handler) respondOtpSent(c *gin.Context, locale string) {
	response.SuccessWithMsg(c, i18n.T(locale, "auth.otp.sent"), gin.H{
		"sent":               true,
		"expires_in_minutes": h.otpExpireMinutes(),
	})
}

func (h *Handler) respondOtpRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		respondError(c, response.CodeBadRequest, "error.email_invalid", nil)
	case errors.Is(err, service.ErrRateLimited):
		h.respondRateLimited(c, err)
	case errors.Is(err, service.ErrRateLimitUnavailable):
		respondError(c, response.CodeServiceUnavailable, "error.rate_limit_unavailable", err)
	case errors.Is(err, service.ErrEmailServiceDisabled),
		errors.Is(err, service.ErrEmailServiceNotConfigured):
		respondError(c, response.CodeServiceUnavailable, "error.email_service_not_configured", err)
	case errors.Is(err, service.ErrEmailSendFailed):
		respondError(c, response.CodeServiceUnavailable, "error.delivery_failed", err)
	case errors.Is(err, service.ErrDBUnavailable):
		respondError(c, response.CodeServiceUnavailable, "error.service_unavailable", err)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

func (h *Handler) respondOtpVerifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		respondError(c, response.CodeBadRequest, "error.email_invalid", nil)
	case errors.Is(err, service.ErrInvalidCode):
		respondError(c, response.CodeBadRequest, "error.code_invalid", nil)
	case errors.Is(err, service.ErrCodeInvalidOrExpired),
		errors.Is(err, service.ErrMagicLinkStateMismatch),
		errors.Is(err, service.ErrNotAllowed),
		errors.Is(err, service.ErrRateLimited):
		// 验证码错误、过期、账号无资格、验证限流统一折叠成一个错误口径，
		// 限流触发与否只进审计流水，不给调用方探测窗口。
		respondError(c, response.CodeUnauthorized, "error.code_invalid_or_expired", nil)
	case errors.Is(err, service.ErrRateLimitUnavailable):
		respondError(c, response.CodeServiceUnavailable, "error.rate_limit_unavailable", err)
	case errors.Is(err, service.ErrDBUnavailable):
		respondError(c, response.CodeServiceUnavailable, "error.service_unavailable", err)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

func (h *Handler) respondRateLimited(c *gin.Context, err error) {
	retryAfter := service.RetryAfterSeconds(err)
	locale := i18n.ResolveLocale(c)
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	response.ErrorWithData(c, response.CodeTooManyRequests,
		i18n.Sprintf(locale, "error.rate_limited", retryAfter),
		gin.H{"retry_after_seconds": retryAfter})
}

// enforceTimingFloor 把认证入口的响应耗时抬到配置下限
// 快速失败路径与真实发信路径在耗时上不可区分。
func (h *Handler) enforceTimingFloor(start time.Time) {
	otp := h.Config.Auth.Otp
	if otp.DisableTimingFloor {
		return
	}
	floor := time.Duration(otp.MinResponseMS) * time.Millisecond
	if otp.MinResponseJitterMS > 0 {
		floor += time.Duration(rand.Intn(otp.MinResponseJitterMS)) * time.Millisecond
	}
	if elapsed := time.Since(start); elapsed < floor {
		time.Sleep(floor - elapsed)
	}
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.SessionCookieName, token, maxAge, "/", h.SessionService.CookieDomain(), h.SessionService.CookieSecure(), true)
}

func (h *Handler) setMagicStateCookie(c *gin.Context, state string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.MagicLinkStateCookieName, state, h.otpExpireMinutes()*60, "/",
		h.SessionService.CookieDomain(), h.SessionService.CookieSecure(), true)
}

func (h *Handler) clearMagicStateCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.MagicLinkStateCookieName, "", -1, "/",
		h.SessionService.CookieDomain(), h.SessionService.CookieSecure(), true)
}

func (h *Handler) otpExpireMinutes() int {
	if n := h.Config.Auth.Otp.ExpireMinutes; n > 0 {
		return n
	}
	return 10
}

func (h *Handler) loginRedirectURL(status string) string {
	base := strings.TrimRight(strings.TrimSpace(h.Config.App.BaseURL), "/")
	return base + "/login?magic=" + status
}
