package mock

import (
	"context"
	"sync"
	"time"

	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories"
)

// BruteForceRepository is an in-memory implementation of
// repositories.BruteForceRepository with the same increment semantics as the
// SQL upsert. Func stubs override individual methods when set.
type BruteForceRepository struct {
	IncrementFunc     func(ctx context.Context, identifier string, attemptType models.AttemptType, maxAttempts int, blockedUntil time.Time) (*models.BruteForceAttempt, error)
	GetFunc           func(ctx context.Context, identifier string, attemptType models.AttemptType) (*models.BruteForceAttempt, error)
	ClearBlockFunc    func(ctx context.Context, identifier string, attemptType models.AttemptType) error
	DeleteFunc        func(ctx context.Context, identifier string, attemptType models.AttemptType) error
	DeleteElapsedFunc func(ctx context.Context, now time.Time) (int64, error)

	mu      sync.Mutex
	records map[string]*models.BruteForceAttempt

	Calls map[string][]interface{}
}

// NewBruteForceRepository creates a new in-memory brute force repository
func NewBruteForceRepository() *BruteForceRepository {
	return &BruteForceRepository{
		records: make(map[string]*models.BruteForceAttempt),
		Calls:   make(map[string][]interface{}),
	}
}

func key(identifier string, attemptType models.AttemptType) string {
	return identifier + "|" + string(attemptType)
}

func (m *BruteForceRepository) Increment(ctx context.Context, identifier string, attemptType models.AttemptType, maxAttempts int, blockedUntil time.Time) (*models.BruteForceAttempt, error) {
	m.Calls["Increment"] = append(m.Calls["Increment"], identifier)
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, identifier, attemptType, maxAttempts, blockedUntil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	rec, ok := m.records[key(identifier, attemptType)]
	if !ok {
		rec = &models.BruteForceAttempt{
			Identifier:   identifier,
			Type:         attemptType,
			Attempts:     0,
			FirstAttempt: now,
		}
		m.records[key(identifier, attemptType)] = rec
	}

	rec.Attempts++
	rec.LastAttempt = now
	if rec.Attempts >= maxAttempts {
		until := blockedUntil
		rec.BlockedUntil = &until
	}

	cp := *rec
	return &cp, nil
}

func (m *BruteForceRepository) Get(ctx context.Context, identifier string, attemptType models.AttemptType) (*models.BruteForceAttempt, error) {
	m.Calls["Get"] = append(m.Calls["Get"], identifier)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, identifier, attemptType)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key(identifier, attemptType)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *BruteForceRepository) ClearBlock(ctx context.Context, identifier string, attemptType models.AttemptType) error {
	m.Calls["ClearBlock"] = append(m.Calls["ClearBlock"], identifier)
	if m.ClearBlockFunc != nil {
		return m.ClearBlockFunc(ctx, identifier, attemptType)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[key(identifier, attemptType)]; ok {
		rec.Attempts = 0
		rec.BlockedUntil = nil
	}
	return nil
}

func (m *BruteForceRepository) Delete(ctx context.Context, identifier string, attemptType models.AttemptType) error {
	m.Calls["Delete"] = append(m.Calls["Delete"], identifier)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, identifier, attemptType)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key(identifier, attemptType))
	return nil
}

func (m *BruteForceRepository) DeleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	m.Calls["DeleteElapsed"] = append(m.Calls["DeleteElapsed"], now)
	if m.DeleteElapsedFunc != nil {
		return m.DeleteElapsedFunc(ctx, now)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for k, rec := range m.records {
		if rec.BlockedUntil != nil && rec.BlockedUntil.Before(now) {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

// Ensure BruteForceRepository implements the interface
var _ repositories.BruteForceRepository = (*BruteForceRepository)(nil)
