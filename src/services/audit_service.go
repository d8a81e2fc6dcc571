package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/salespilot/admin-auth-server/src/logging"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories"
)

// RedactionMarker replaces denylisted field values in persisted audit details
const RedactionMarker = "[REDACTED]"

// sensitiveFields is the denylist matched (case-insensitively, as a
// substring) against body field names before persistence
var sensitiveFields = []string{"password", "token", "secret", "apikey"}

// AuditService persists the append-only trail of authenticated admin
// requests. Writes are fire-and-forget: a failed insert is logged and never
// fails or delays the original response.
type AuditService struct {
	pool   *pgxpool.Pool
	repo   repositories.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(pool *pgxpool.Pool) *AuditService {
	return &AuditService{pool: pool, logger: logging.NewLogger("audit")}
}

// NewAuditServiceWithRepo creates a new audit service with repository (for testing)
func NewAuditServiceWithRepo(repo repositories.AuditLogRepository) *AuditService {
	return &AuditService{repo: repo, logger: logging.NewLogger("audit")}
}

// Record dispatches an asynchronous write of one audit entry. The caller's
// response path never waits on it.
func (s *AuditService) Record(entry *models.AuditLogEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.create(ctx, entry); err != nil {
			s.logger.Error().Err(err).
				Str("action", string(entry.Action)).
				Str("resource", entry.Resource).
				Msg("failed to write audit entry")
		}
	}()
}

func (s *AuditService) create(ctx context.Context, entry *models.AuditLogEntry) error {
	if s.repo != nil {
		return s.repo.Create(ctx, entry)
	}

	query := `
		INSERT INTO audit_logs (id, admin_id, action, resource, resource_id, details, status_code, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.pool.Exec(ctx, query,
		entry.ID, entry.AdminID, entry.Action, entry.Resource, entry.ResourceID,
		entry.Details, entry.StatusCode, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	)
	return err
}

// List returns audit entries newest-first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	if s.repo != nil {
		return s.repo.List(ctx, limit, offset)
	}

	query := `
		SELECT id, admin_id, action, resource, resource_id, details, status_code, ip_address, user_agent, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry := &models.AuditLogEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.AdminID, &entry.Action, &entry.Resource, &entry.ResourceID,
			&entry.Details, &entry.StatusCode, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SanitizeDetails marshals request details with all denylisted fields
// redacted, recursing into nested objects and arrays
func SanitizeDetails(details map[string]interface{}) (json.RawMessage, error) {
	if details == nil {
		return nil, nil
	}
	sanitized := sanitizeValue(details)
	return json.Marshal(sanitized)
}

// IsSensitiveField reports whether a field name is on the redaction denylist
func IsSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveFields {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			if IsSensitiveField(k) {
				out[k] = RedactionMarker
			} else {
				out[k] = sanitizeValue(inner)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = sanitizeValue(inner)
		}
		return out
	default:
		return v
	}
}
