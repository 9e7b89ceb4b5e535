package service

import (
	"errors"
	"testing"
	"time"

	"github.com/roomnest-next/internal/config"
	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"
)

func testSessionConfig() *config.SessionConfig {
	return &config.SessionConfig{
		Secret:      "test-session-secret-0123456789abcdef",
		ExpireHours: 24,
	}
}

func TestSessionServiceIssueAndParse(t *testing.T) {
	svc := NewSessionService(testSessionConfig())
	user := &models.User{
		Email: "student@example.com",
		Role:  constants.UserRoleWhitelisted,
	}
	user.ID = 42

	token, expiresAt, err := svc.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	if token == "" {
		t.Fatal("token want non-empty")
	}
	if remaining := time.Until(expiresAt); remaining < 23*time.Hour || remaining > 25*time.Hour {
		t.Fatalf("expires_at want about 24h from now got %v", remaining)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("user_id want 42 got %d", claims.UserID)
	}
	if claims.Email != "student@example.com" {
		t.Fatalf("email want student@example.com got %s", claims.Email)
	}
	if claims.Role != constants.UserRoleWhitelisted {
		t.Fatalf("role want whitelisted got %s", claims.Role)
	}
}

func TestSessionServiceRejectsForeignSecret(t *testing.T) {
	issuer := NewSessionService(&config.SessionConfig{Secret: "issuer-secret-0123456789abcdef-xxxx", ExpireHours: 1})
	verifier := NewSessionService(testSessionConfig())

	user := &models.User{Email: "student@example.com", Role: constants.UserRoleWhitelisted}
	user.ID = 7
	token, _, err := issuer.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}

	if _, err := verifier.ParseToken(token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("foreign secret want ErrSessionInvalid got %v", err)
	}
}

func TestSessionServiceRejectsGarbageAndNilUser(t *testing.T) {
	svc := NewSessionService(testSessionConfig())

	if _, err := svc.ParseToken("not-a-jwt"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("garbage token want ErrSessionInvalid got %v", err)
	}
	if _, _, err := svc.IssueToken(nil); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("nil user want ErrSessionInvalid got %v", err)
	}
}
