package mock

import (
	"context"
	"sync"

	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories"
)

// AuditLogRepository is a mock implementation of repositories.AuditLogRepository
// that records entries in memory for inspection.
type AuditLogRepository struct {
	CreateFunc func(ctx context.Context, entry *models.AuditLogEntry) error
	ListFunc   func(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error)

	mu      sync.Mutex
	Entries []*models.AuditLogEntry

	Calls map[string][]interface{}
}

// NewAuditLogRepository creates a new mock audit log repository
func NewAuditLogRepository() *AuditLogRepository {
	return &AuditLogRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	m.mu.Lock()
	m.Calls["Create"] = append(m.Calls["Create"], entry)
	m.Entries = append(m.Entries, entry)
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	return nil
}

func (m *AuditLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error) {
	m.mu.Lock()
	m.Calls["List"] = append(m.Calls["List"], limit)
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AuditLogEntry, len(m.Entries))
	copy(out, m.Entries)
	return out, nil
}

// Snapshot returns a copy of the recorded entries (safe for concurrent use
// with the fire-and-forget audit writer).
func (m *AuditLogRepository) Snapshot() []*models.AuditLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AuditLogEntry, len(m.Entries))
	copy(out, m.Entries)
	return out
}

// Ensure AuditLogRepository implements the interface
var _ repositories.AuditLogRepository = (*AuditLogRepository)(nil)
