package mock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories"
)

// SessionRepository is a mock implementation of repositories.SessionRepository
type SessionRepository struct {
	CreateFunc            func(ctx context.Context, session *models.Session) error
	GetActiveByTokenFunc  func(ctx context.Context, token string, now time.Time) (*models.Session, error)
	GetByRefreshTokenFunc func(ctx context.Context, refreshToken string) (*models.Session, error)
	TouchFunc             func(ctx context.Context, id uuid.UUID, now time.Time) error
	RotateFunc            func(ctx context.Context, id uuid.UUID, token string, expiresAt, now time.Time) error
	DeleteByIDFunc        func(ctx context.Context, id uuid.UUID) error
	DeleteByTokenFunc     func(ctx context.Context, token string) error
	DeleteExpiredFunc     func(ctx context.Context, idleCutoff time.Time) (int64, error)

	Calls map[string][]interface{}
}

// NewSessionRepository creates a new mock session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	m.Calls["Create"] = append(m.Calls["Create"], session)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	return nil
}

func (m *SessionRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	m.Calls["GetActiveByToken"] = append(m.Calls["GetActiveByToken"], token)
	if m.GetActiveByTokenFunc != nil {
		return m.GetActiveByTokenFunc(ctx, token, now)
	}
	return nil, nil
}

func (m *SessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	m.Calls["GetByRefreshToken"] = append(m.Calls["GetByRefreshToken"], refreshToken)
	if m.GetByRefreshTokenFunc != nil {
		return m.GetByRefreshTokenFunc(ctx, refreshToken)
	}
	return nil, nil
}

func (m *SessionRepository) Touch(ctx context.Context, id uuid.UUID, now time.Time) error {
	m.Calls["Touch"] = append(m.Calls["Touch"], id)
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, id, now)
	}
	return nil
}

func (m *SessionRepository) Rotate(ctx context.Context, id uuid.UUID, token string, expiresAt, now time.Time) error {
	m.Calls["Rotate"] = append(m.Calls["Rotate"], id)
	if m.RotateFunc != nil {
		return m.RotateFunc(ctx, id, token, expiresAt, now)
	}
	return nil
}

func (m *SessionRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	m.Calls["DeleteByID"] = append(m.Calls["DeleteByID"], id)
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(ctx, id)
	}
	return nil
}

func (m *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	m.Calls["DeleteByToken"] = append(m.Calls["DeleteByToken"], token)
	if m.DeleteByTokenFunc != nil {
		return m.DeleteByTokenFunc(ctx, token)
	}
	return nil
}

func (m *SessionRepository) DeleteExpired(ctx context.Context, idleCutoff time.Time) (int64, error) {
	m.Calls["DeleteExpired"] = append(m.Calls["DeleteExpired"], idleCutoff)
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, idleCutoff)
	}
	return 0, nil
}

// Ensure SessionRepository implements the interface
var _ repositories.SessionRepository = (*SessionRepository)(nil)
