package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories/mock"
	"github.com/salespilot/admin-auth-server/src/services"
)

const (
	mwTestSecret        = "middleware-test-secret-0123456789abc"
	mwTestRefreshSecret = "middleware-refresh-secret-0123456789"
)

type authTestEnv struct {
	tokens      *services.TokenService
	sessionRepo *mock.SessionRepository
	adminRepo   *mock.AdminAccountRepository
	admin       *models.AdminAccount
	router      *gin.Engine
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	tokens, err := services.NewTokenService(mwTestSecret, mwTestRefreshSecret, 15*time.Minute, 24*time.Hour, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}

	admin := &models.AdminAccount{
		ID:       uuid.New(),
		Email:    "admin@example.com",
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	sessionRepo := mock.NewSessionRepository()
	adminRepo := mock.NewAdminAccountRepository()
	adminRepo.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
		if id == admin.ID {
			cp := *admin
			return &cp, nil
		}
		return nil, nil
	}

	sessions := services.NewSessionServiceWithRepo(sessionRepo, 15*time.Minute)
	admins := services.NewAdminServiceWithRepo(adminRepo, 4)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AdminAuthMiddleware(tokens, sessions, admins))
	router.GET("/protected", func(c *gin.Context) {
		got, ok := AdminFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "admin missing from context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": got.Email})
	})

	return &authTestEnv{tokens: tokens, sessionRepo: sessionRepo, adminRepo: adminRepo, admin: admin, router: router}
}

// allowSession makes the session repo accept the given token with recent activity
func (env *authTestEnv) allowSession(token string) {
	adminID := env.admin.ID
	env.sessionRepo.GetActiveByTokenFunc = func(ctx context.Context, tok string, now time.Time) (*models.Session, error) {
		if tok != token {
			return nil, nil
		}
		return &models.Session{
			ID:           uuid.New(),
			AdminID:      adminID,
			Token:        tok,
			ExpiresAt:    now.Add(10 * time.Minute),
			LastActivity: now.Add(-time.Minute),
		}, nil
	}
}

// TestAdminAuthMiddleware_ValidBearerToken tests the full happy path via the
// Authorization header
func TestAdminAuthMiddleware_ValidBearerToken(t *testing.T) {
	env := newAuthTestEnv(t)

	token, _, err := env.tokens.IssueAccessToken(env.admin)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}
	env.allowSession(token)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

// TestAdminAuthMiddleware_CookieToken tests authentication via the
// adminToken cookie
func TestAdminAuthMiddleware_CookieToken(t *testing.T) {
	env := newAuthTestEnv(t)

	token, _, err := env.tokens.IssueAccessToken(env.admin)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}
	env.allowSession(token)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AdminTokenCookie, Value: token})
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

// TestAdminAuthMiddleware_MissingToken tests rejection without credentials
func TestAdminAuthMiddleware_MissingToken(t *testing.T) {
	env := newAuthTestEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}

// TestAdminAuthMiddleware_MalformedToken tests rejection of a garbage token
func TestAdminAuthMiddleware_MalformedToken(t *testing.T) {
	env := newAuthTestEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed token, got %d", w.Code)
	}
}

// TestAdminAuthMiddleware_NoBackingSession tests that a valid JWT without a
// live session row is rejected (logged-out token)
func TestAdminAuthMiddleware_NoBackingSession(t *testing.T) {
	env := newAuthTestEnv(t)

	token, _, err := env.tokens.IssueAccessToken(env.admin)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}
	// Session repo returns nothing: the session was invalidated

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for token without session, got %d", w.Code)
	}
}

// TestAdminAuthMiddleware_IdleSession tests that an idle-expired session is
// rejected
func TestAdminAuthMiddleware_IdleSession(t *testing.T) {
	env := newAuthTestEnv(t)

	token, _, err := env.tokens.IssueAccessToken(env.admin)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	adminID := env.admin.ID
	env.sessionRepo.GetActiveByTokenFunc = func(ctx context.Context, tok string, now time.Time) (*models.Session, error) {
		return &models.Session{
			ID:           uuid.New(),
			AdminID:      adminID,
			Token:        tok,
			ExpiresAt:    now.Add(10 * time.Minute),
			LastActivity: now.Add(-time.Hour),
		}, nil
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for idle session, got %d", w.Code)
	}
}

// TestAdminAuthMiddleware_InactiveAccount tests that a deactivated account
// is rejected even with a live session
func TestAdminAuthMiddleware_InactiveAccount(t *testing.T) {
	env := newAuthTestEnv(t)
	env.admin.IsActive = false

	token, _, err := env.tokens.IssueAccessToken(env.admin)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}
	env.allowSession(token)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for deactivated account, got %d", w.Code)
	}
}

// TestRequireRole tests role gating, including the SUPER_ADMIN override
func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(role models.AdminRole, required models.AdminRole) int {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(ContextKeyAdmin, &models.AdminAccount{ID: uuid.New(), Role: role, IsActive: true})
		})
		router.Use(RequireRole(required))
		router.GET("/gated", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/gated", nil)
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := run(models.RoleSuperAdmin, models.RoleSuperAdmin); code != http.StatusOK {
		t.Errorf("SUPER_ADMIN on SUPER_ADMIN route: expected 200, got %d", code)
	}
	if code := run(models.RoleSuperAdmin, models.RoleSupport); code != http.StatusOK {
		t.Errorf("SUPER_ADMIN passes every gate: expected 200, got %d", code)
	}
	if code := run(models.RoleAdmin, models.RoleSuperAdmin); code != http.StatusForbidden {
		t.Errorf("ADMIN on SUPER_ADMIN route: expected 403, got %d", code)
	}
	if code := run(models.RoleSupport, models.RoleSupport); code != http.StatusOK {
		t.Errorf("SUPPORT on SUPPORT route: expected 200, got %d", code)
	}
}
