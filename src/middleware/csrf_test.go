package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salespilot/admin-auth-server/src/services"
)

func newCSRFTestRouter(issuer services.CSRFIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CSRFMiddleware(issuer))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }
	router.POST("/api/admin/accounts", ok)
	router.GET("/api/admin/accounts", ok)
	router.POST("/api/auth/login", ok)
	router.POST("/api/auth/verify-2fa", ok)
	router.POST("/api/auth/refresh", ok)
	router.POST("/api/auth/setup-2fa", ok)
	router.POST("/api/auth/logout", ok)
	return router
}

// TestCSRFMiddleware_MissingToken tests that a mutating request without a
// token is rejected
func TestCSRFMiddleware_MissingToken(t *testing.T) {
	router := newCSRFTestRouter(services.NewCSRFService(time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/accounts", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 without CSRF token, got %d", w.Code)
	}
}

// TestCSRFMiddleware_HeaderToken_SingleUse tests that a valid header token
// passes once and is consumed
func TestCSRFMiddleware_HeaderToken_SingleUse(t *testing.T) {
	cs := services.NewCSRFService(time.Hour)
	router := newCSRFTestRouter(cs)

	token, err := cs.Issue()
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/accounts", nil)
	req.Header.Set(CSRFHeader, token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d: %s", w.Code, w.Body.String())
	}

	// Replaying the same token must fail
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/admin/accounts", nil)
	req.Header.Set(CSRFHeader, token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 on token replay, got %d", w.Code)
	}
}

// TestCSRFMiddleware_BodyToken tests the _csrf body field fallback and that
// the body stays readable downstream
func TestCSRFMiddleware_BodyToken(t *testing.T) {
	cs := services.NewCSRFService(time.Hour)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CSRFMiddleware(cs))
	router.POST("/api/admin/accounts", func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body lost"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": body.Email})
	})

	token, err := cs.Issue()
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	payload := `{"email":"new@example.com","_csrf":"` + token + `"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/accounts", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with body token, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "new@example.com") {
		t.Error("expected downstream handler to still read the body")
	}
}

// TestCSRFMiddleware_SafeMethodsPass tests that GET is never gated
func TestCSRFMiddleware_SafeMethodsPass(t *testing.T) {
	router := newCSRFTestRouter(services.NewCSRFService(time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/accounts", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for GET without token, got %d", w.Code)
	}
}

// TestCSRFMiddleware_BypassPaths tests that the auth bootstrap routes skip
// the check while other mutating auth routes do not
func TestCSRFMiddleware_BypassPaths(t *testing.T) {
	router := newCSRFTestRouter(services.NewCSRFService(time.Hour))

	bypassed := []string{
		"/api/auth/login",
		"/api/auth/verify-2fa",
		"/api/auth/refresh",
		"/api/auth/setup-2fa",
	}
	for _, path := range bypassed {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected 200 for %s without token, got %d", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for logout without token, got %d", w.Code)
	}
}
