package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string, roles []string, expires time.Time) string {
	t.Helper()
	claims := JWTClaims{
		UserID: "u-1",
		Name:   "Jan Kowalski",
		Email:  "jan@test",
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newRouter(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	handlers := []gin.HandlerFunc{JWTAuth(testSecret)}
	if role != "" {
		handlers = append(handlers, RequireRole(role))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "user_name": c.GetString("user_name")})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := newRouter("")
	valid := signToken(t, testSecret, nil, time.Now().Add(time.Hour))

	tests := []struct {
		name string
		path string
		tok  string
		want int
	}{
		{"missing", "/x", "", http.StatusUnauthorized},
		{"header", "/x", valid, http.StatusOK},
		{"query", "/x?token=" + valid, "", http.StatusOK},
		{"wrong secret", "/x", signToken(t, "other", nil, time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", "/x", signToken(t, testSecret, nil, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		w := do(r, tt.path, tt.tok)
		if w.Code != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, w.Code, tt.want)
		}
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter("purchasing")

	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{"no roles", nil, http.StatusForbidden},
		{"other role", []string{"storekeeper"}, http.StatusForbidden},
		{"matching role", []string{"storekeeper", "purchasing"}, http.StatusOK},
		{"admin", []string{AdminRole}, http.StatusOK},
	}
	for _, tt := range tests {
		w := do(r, "/x", signToken(t, testSecret, tt.roles, time.Now().Add(time.Hour)))
		if w.Code != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, w.Code, tt.want)
		}
	}
}

func TestRequestIDPropagates(t *testing.T) {
	r := newRouter("")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected propagated request id, got %q", got)
	}

	w = do(r, "/x", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}
}
