package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audited resource kinds, matched against the request path in order.
const (
	ResourceClients    = "clients"
	ResourceInvoices   = "invoices"
	ResourceRefunds    = "refunds"
	ResourcePromoCodes = "promo-codes"
	ResourceAuth       = "auth"
	ResourceAdmin      = "admin"
	ResourceDashboard  = "dashboard"
	ResourceUnknown    = "UNKNOWN"
)

// AuditLogEntry is one append-only record of an authenticated admin request.
// Details never contain raw values for denylisted fields (password, token,
// secret, apiKey); those are replaced with a redaction marker before persistence.
type AuditLogEntry struct {
	ID         uuid.UUID       `json:"id"`
	AdminID    uuid.UUID       `json:"admin_id"`
	Action     AuditAction     `json:"action"`
	Resource   string          `json:"resource"`
	ResourceID *string         `json:"resource_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	StatusCode int             `json:"status_code"`
	IPAddress  string          `json:"ip_address"`
	UserAgent  string          `json:"user_agent"`
	CreatedAt  time.Time       `json:"created_at"`
}
