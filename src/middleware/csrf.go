package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salespilot/admin-auth-server/src/services"
)

// CSRFHeader carries the token for mutating requests
const CSRFHeader = "X-CSRF-Token"

// csrfBypassPaths are the auth bootstrap routes: no CSRF token has been
// issued yet when they run
var csrfBypassPaths = map[string]struct{}{
	"/api/auth/login":      {},
	"/api/auth/verify-2fa": {},
	"/api/auth/refresh":    {},
	"/api/auth/setup-2fa":  {},
}

// CSRFMiddleware enforces single-use CSRF tokens on state-changing methods.
// The token comes from the X-CSRF-Token header or the _csrf body field.
func CSRFMiddleware(issuer services.CSRFIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		if _, bypass := csrfBypassPaths[c.Request.URL.Path]; bypass {
			c.Next()
			return
		}

		token := c.GetHeader(CSRFHeader)
		if token == "" {
			token = csrfTokenFromBody(c)
		}

		if token == "" || !issuer.Validate(token) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "invalid or missing CSRF token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// csrfTokenFromBody peeks at a JSON body for the _csrf field, restoring the
// body for downstream handlers
func csrfTokenFromBody(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}

	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		CSRF string `json:"_csrf"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.CSRF
}
