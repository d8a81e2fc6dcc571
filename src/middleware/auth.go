package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/services"
)

// Context keys for the authenticated principal
const (
	ContextKeyAdmin   = "admin"
	ContextKeySession = "session"
	ContextKeyToken   = "access_token"
)

// AdminTokenCookie is the cookie carrying the access token for browser clients
const AdminTokenCookie = "adminToken"

// ExtractToken pulls the access token from the adminToken cookie or the
// Authorization header
func ExtractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AdminTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return ""
}

// AdminAuthMiddleware authenticates a request: it verifies the JWT, validates
// the backing session (enforcing expiry and idle timeout) and attaches the
// active admin account to the context.
func AdminAuthMiddleware(tokens *services.TokenService, sessions *services.SessionService, admins *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authentication token"})
			c.Abort()
			return
		}

		if _, err := tokens.ParseAccessToken(token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
			c.Abort()
			return
		}

		session, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrSessionNotFound) || errors.Is(err, services.ErrSessionIdle) {
				c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "session expired"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to validate session"})
			}
			c.Abort()
			return
		}

		admin, err := admins.GetByID(c.Request.Context(), session.AdminID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
			c.Abort()
			return
		}
		if !admin.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "account is deactivated"})
			c.Abort()
			return
		}

		c.Set(ContextKeyAdmin, admin)
		c.Set(ContextKeySession, session)
		c.Set(ContextKeyToken, token)
		c.Next()
	}
}

// RequireRole gates a route to a role. SUPER_ADMIN passes every gate.
func RequireRole(role models.AdminRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := AdminFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authentication token"})
			c.Abort()
			return
		}
		if admin.Role != role && admin.Role != models.RoleSuperAdmin {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminFromContext retrieves the authenticated admin from the request context
func AdminFromContext(c *gin.Context) (*models.AdminAccount, bool) {
	v, exists := c.Get(ContextKeyAdmin)
	if !exists {
		return nil, false
	}
	admin, ok := v.(*models.AdminAccount)
	return admin, ok
}

// SessionFromContext retrieves the validated session from the request context
func SessionFromContext(c *gin.Context) (*models.Session, bool) {
	v, exists := c.Get(ContextKeySession)
	if !exists {
		return nil, false
	}
	session, ok := v.(*models.Session)
	return session, ok
}

// TokenFromContext retrieves the raw access token from the request context
func TokenFromContext(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}
