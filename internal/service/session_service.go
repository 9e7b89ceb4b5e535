package service

import (
	"time"

	"github.com/roomnest-next/internal/config"
	"github.com/roomnest-next/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims 会话 JWT 声明
// 写入 HttpOnly Cookie，角色快照仅作提示，鉴权时以缓存/数据库为准。
type SessionClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SessionService 会话服务
type SessionService struct {
	cfg *config.SessionConfig
}

// NewSessionService 创建会话服务
func NewSessionService(cfg *config.SessionConfig) *SessionService {
	return &SessionService{cfg: cfg}
}

// IssueToken 为用户签发会话 Token
func (s *SessionService) IssueToken(user *models.User) (string, time.Time, error) {
	if user == nil {
		return "", time.Time{}, ErrSessionInvalid
	}
	hours := 168
	if s.cfg != nil && s.cfg.ExpireHours > 0 {
		hours = s.cfg.ExpireHours
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)
	claims := SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret()))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken 解析会话 Token
func (s *SessionService) ParseToken(tokenString string) (*SessionClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &SessionClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret()), nil
	})
	if err != nil {
		return nil, ErrSessionInvalid
	}
	if parsed, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return parsed, nil
	}
	return nil, ErrSessionInvalid
}

// CookieDomain 返回会话 Cookie 域
func (s *SessionService) CookieDomain() string {
	if s.cfg == nil {
		return ""
	}
	return s.cfg.CookieDomain
}

// CookieSecure 返回会话 Cookie 是否仅限 HTTPS
func (s *SessionService) CookieSecure() bool {
	return s.cfg != nil && s.cfg.CookieSecure
}

func (s *SessionService) secret() string {
	if s.cfg == nil {
		return ""
	}
	return s.cfg.Secret
}
