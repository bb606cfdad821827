package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tumaini/config"
	"tumaini/internal/auth"
	"tumaini/internal/domain"

	"github.com/gin-gonic/gin"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "tumaini",
	}
}

func newGuardedRouter(cfg *config.JWTConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/staff", AuthRequired(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	r.GET("/admin", AuthRequired(cfg), AdminRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func get(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	cfg := testJWTConfig()
	r := newGuardedRouter(cfg)

	staffToken, err := auth.GenerateAccessToken(cfg, 7, "staff@tumaini.org", domain.RoleStaff)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	tests := []struct {
		name          string
		authorization string
		want          int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer scheme", "Basic abc123", http.StatusUnauthorized},
		{"empty bearer token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + staffToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := get(r, "/staff", tt.authorization); w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAuthRequiredRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	r := newGuardedRouter(cfg)

	other := testJWTConfig()
	other.AccessSecret = "some-other-secret"
	token, err := auth.GenerateAccessToken(other, 7, "staff@tumaini.org", domain.RoleStaff)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if w := get(r, "/staff", "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAdminRequired(t *testing.T) {
	cfg := testJWTConfig()
	r := newGuardedRouter(cfg)

	staffToken, err := auth.GenerateAccessToken(cfg, 7, "staff@tumaini.org", domain.RoleStaff)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	adminToken, err := auth.GenerateAccessToken(cfg, 1, "admin@tumaini.org", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if w := get(r, "/admin", "Bearer "+staffToken); w.Code != http.StatusForbidden {
		t.Errorf("staff on admin route: status = %d, want 403", w.Code)
	}
	if w := get(r, "/admin", "Bearer "+adminToken); w.Code != http.StatusOK {
		t.Errorf("admin on admin route: status = %d, want 200", w.Code)
	}
}
