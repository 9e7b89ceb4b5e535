package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/roomnest-next/internal/config"
	"github.com/roomnest-next/internal/constants"
	"github.com/roomnest-next/internal/models"
	"github.com/roomnest-next/internal/repository"
	"github.com/roomnest-next/internal/service"

	"github.com/gin-gonic/gin"
)

type stubUserRepo struct {
	user *models.User
}

func (r *stubUserRepo) Create(user *models.User) error { return nil }

func (r *stubUserRepo) GetByID(id uint) (*models.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, nil
}

func (r *stubUserRepo) GetByEmail(email string) (*models.User, error) {
	if r.user != nil && r.user.Email == email {
		return r.user, nil
	}
	return nil, nil
}

func (r *stubUserRepo) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return nil, 0, nil
}

func (r *stubUserRepo) UpdateRole(id uint, role string) error     { return nil }
func (r *stubUserRepo) UpdateStatus(id uint, status string) error { return nil }
func (r *stubUserRepo) UpdateProfile(id uint, displayName, locale string) error {
	return nil
}
func (r *stubUserRepo) TouchLastLogin(id uint, at time.Time) error { return nil }

func newSessionTestRouter(sessionService *service.SessionService, repo repository.UserRepository) *gin.Engine {
	r := gin.New()
	r.Use(SessionAuthMiddleware(sessionService, repo))
	r.GET("/me", func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func decodeStatusCode(t *testing.T, body []byte) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if strings.TrimSpace(generated) == "" {
		t.Fatalf("generated request id should not be empty")
	}
}

func TestSessionAuthMiddlewareMissingCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sessionService := service.NewSessionService(&config.SessionConfig{Secret: "session-test-secret", ExpireHours: 1})
	r := newSessionTestRouter(sessionService, &stubUserRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)

	if got := decodeStatusCode(t, w.Body.Bytes()); got != 401 {
		t.Fatalf("status_code want 401 got %d", got)
	}
}

func TestSessionAuthMiddlewareValidCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	user := &models.User{ID: 7, Email: "tenant@example.com", Role: constants.UserRoleWhitelisted, Status: constants.UserStatusActive}
	sessionService := service.NewSessionService(&config.SessionConfig{Secret: "session-test-secret", ExpireHours: 1})
	token, _, err := sessionService.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}

	r := newSessionTestRouter(sessionService, &stubUserRepo{user: user})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: token})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		UserID uint `json:"user_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.UserID != user.ID {
		t.Fatalf("user_id want %d got %d", user.ID, resp.UserID)
	}
}

func TestSessionAuthMiddlewareDisabledUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	user := &models.User{ID: 8, Email: "blocked@example.com", Role: constants.UserRoleWhitelisted, Status: constants.UserStatusDisabled}
	sessionService := service.NewSessionService(&config.SessionConfig{Secret: "session-test-secret", ExpireHours: 1})
	token, _, err := sessionService.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}

	r := newSessionTestRouter(sessionService, &stubUserRepo{user: user})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: token})
	r.ServeHTTP(w, req)

	if got := decodeStatusCode(t, w.Body.Bytes()); got != 401 {
		t.Fatalf("status_code want 401 got %d", got)
	}
}

func TestSessionAuthMiddlewareTamperedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	user := &models.User{ID: 9, Email: "tenant@example.com", Role: constants.UserRoleWhitelisted, Status: constants.UserStatusActive}
	issuer := service.NewSessionService(&config.SessionConfig{Secret: "another-secret-entirely", ExpireHours: 1})
	token, _, err := issuer.IssueToken(user)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}

	sessionService := service.NewSessionService(&config.SessionConfig{Secret: "session-test-secret", ExpireHours: 1})
	r := newSessionTestRouter(sessionService, &stubUserRepo{user: user})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: token})
	r.ServeHTTP(w, req)

	if got := decodeStatusCode(t, w.Body.Bytes()); got != 401 {
		t.Fatalf("status_code want 401 got %d", got)
	}
}
