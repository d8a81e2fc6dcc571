package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/services"

	"github.com/gin-gonic/gin"
)

// auditedResources is the ordered list matched as substrings against the
// request path; first match wins
var auditedResources = []string{
	models.ResourceClients,
	models.ResourceInvoices,
	models.ResourceRefunds,
	models.ResourcePromoCodes,
	models.ResourceAuth,
	models.ResourceAdmin,
	models.ResourceDashboard,
}

// idParams are checked in order for a best-effort resource id
var idParams = []string{"id", "clientId", "invoiceId"}

// AuditMiddleware records every authenticated request/response pair as an
// append-only audit entry. The write is dispatched after the handler chain
// completes and never blocks the response.
func AuditMiddleware(audit *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]interface{}
		if hasJSONBody(c.Request) {
			body = peekJSONBody(c)
		}

		c.Next()

		admin, ok := AdminFromContext(c)
		if !ok {
			return
		}

		entry := &models.AuditLogEntry{
			AdminID:    admin.ID,
			Action:     actionForMethod(c.Request.Method),
			Resource:   resourceForPath(c.Request.URL.Path),
			ResourceID: extractResourceID(c, body),
			StatusCode: c.Writer.Status(),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		}

		details := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}
		if query := c.Request.URL.RawQuery; query != "" {
			details["query"] = query
		}
		if body != nil {
			details["body"] = body
		}

		sanitized, err := services.SanitizeDetails(details)
		if err == nil {
			entry.Details = sanitized
		}

		audit.Record(entry)
	}
}

func actionForMethod(method string) models.AuditAction {
	switch method {
	case http.MethodPost:
		return models.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return models.AuditActionUpdate
	case http.MethodDelete:
		return models.AuditActionDelete
	default:
		return models.AuditActionRead
	}
}

func resourceForPath(path string) string {
	for _, resource := range auditedResources {
		if strings.Contains(path, resource) {
			return resource
		}
	}
	return models.ResourceUnknown
}

func extractResourceID(c *gin.Context, body map[string]interface{}) *string {
	for _, param := range idParams {
		if v := c.Param(param); v != "" {
			return &v
		}
	}
	for _, param := range idParams {
		if v, ok := body[param].(string); ok && v != "" {
			return &v
		}
	}
	return nil
}

func hasJSONBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// peekJSONBody reads and restores the request body so downstream binding
// still works
func peekJSONBody(c *gin.Context) map[string]interface{} {
	if c.Request.Body == nil {
		return nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
	if err != nil || len(raw) == 0 {
		return nil
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return body
}
