package service

import (
	"errors"
	"fmt"
)

// 认证相关错误
var (
	ErrInvalidEmail           = errors.New("invalid email")
	ErrInvalidCode            = errors.New("invalid code format")
	ErrCodeInvalidOrExpired   = errors.New("code invalid or expired")
	ErrNotAllowed             = errors.New("login not allowed")
	ErrRateLimited            = errors.New("rate limited")
	ErrDBUnavailable          = errors.New("database unavailable")
	ErrRateLimitUnavailable   = errors.New("rate limit storage unavailable")
	ErrSessionInvalid         = errors.New("session invalid")
	ErrMagicLinkStateMismatch = errors.New("magic link state mismatch")
)

// 邮件发送相关错误
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailSendFailed           = errors.New("email send failed")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
)

// 业务对象相关错误
var (
	ErrListingNotFound          = errors.New("listing not found")
	ErrReviewNotFound           = errors.New("review not found")
	ErrReviewDuplicate          = errors.New("review duplicate")
	ErrRatingInvalid            = errors.New("rating invalid")
	ErrContactEditNotFound      = errors.New("contact edit request not found")
	ErrContactEditPendingExists = errors.New("contact edit request already pending")
	ErrContactFieldInvalid      = errors.New("contact field invalid")
	ErrStatusTransition         = errors.New("status transition not allowed")
	ErrUserNotFound             = errors.New("user not found")
	ErrCaptchaRequired          = errors.New("captcha required")
	ErrCaptchaInvalid           = errors.New("captcha invalid")
)

// RateLimitedError 限流错误，携带建议重试秒数
type RateLimitedError struct {
	RetryAfterSeconds int
}

// Error 实现 error 接口
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %ds", e.RetryAfterSeconds)
}

// Unwrap 支持 errors.Is(err, ErrRateLimited)
func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// NewRateLimitedError 创建限流错误
func NewRateLimitedError(retryAfterSeconds int) *RateLimitedError {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}
	return &RateLimitedError{RetryAfterSeconds: retryAfterSeconds}
}

// RetryAfterSeconds 从错误中提取重试秒数，非限流错误返回 0
func RetryAfterSeconds(err error) int {
	var limited *RateLimitedError
	if errors.As(err, &limited) {
		return limited.RetryAfterSeconds
	}
	return 0
}
