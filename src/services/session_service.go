package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories"
)

const sessionColumns = `id, admin_id, token, refresh_token, ip_address, user_agent,
	expires_at, last_activity, created_at`

// SessionService manages the lifecycle of authenticated sessions:
// creation on login, activity-stamped validation with idle timeout,
// token rotation on refresh and invalidation on logout.
type SessionService struct {
	pool        *pgxpool.Pool
	repo        repositories.SessionRepository
	idleTimeout time.Duration
}

// NewSessionService creates a new session service
func NewSessionService(pool *pgxpool.Pool, idleTimeout time.Duration) *SessionService {
	return &SessionService{pool: pool, idleTimeout: idleTimeout}
}

// NewSessionServiceWithRepo creates a new session service with repository (for testing)
func NewSessionServiceWithRepo(repo repositories.SessionRepository, idleTimeout time.Duration) *SessionService {
	return &SessionService{repo: repo, idleTimeout: idleTimeout}
}

// Create stores a new session row for an issued access token
func (ss *SessionService) Create(ctx context.Context, adminID uuid.UUID, token, refreshToken, ip, userAgent string, expiresAt time.Time) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		ID:           uuid.New(),
		AdminID:      adminID,
		Token:        token,
		RefreshToken: refreshToken,
		IPAddress:    ip,
		UserAgent:    userAgent,
		ExpiresAt:    expiresAt,
		LastActivity: now,
		CreatedAt:    now,
	}

	if ss.repo != nil {
		if err := ss.repo.Create(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}

	query := `
		INSERT INTO admin_sessions (id, admin_id, token, refresh_token, ip_address, user_agent, expires_at, last_activity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	if _, err := ss.pool.Exec(ctx, query, session.ID, adminID, token, refreshToken, ip, userAgent, expiresAt, now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Validate looks up the session for a token and enforces expiry and idle
// timeout. An idle-expired session is deleted so later attempts with the
// same token also fail. The activity timestamp is only touched after the
// idle check passes, so an expired session cannot be resurrected.
func (ss *SessionService) Validate(ctx context.Context, token string) (*models.Session, error) {
	now := time.Now()

	session, err := ss.getActiveByToken(ctx, token, now)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IdleFor(now) > ss.idleTimeout {
		if err := ss.deleteByID(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, ErrSessionIdle
	}

	if err := ss.touch(ctx, session.ID, now); err != nil {
		return nil, err
	}
	session.LastActivity = now
	return session, nil
}

// GetByRefreshToken locates the session owning a refresh token
func (ss *SessionService) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	if ss.repo != nil {
		session, err := ss.repo.GetByRefreshToken(ctx, refreshToken)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
		return session, nil
	}

	row := ss.pool.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM admin_sessions WHERE refresh_token = $1", refreshToken)
	session, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Rotate installs a freshly issued access token on the session and resets
// activity, used on refresh
func (ss *SessionService) Rotate(ctx context.Context, sessionID uuid.UUID, token string, expiresAt time.Time) error {
	now := time.Now()

	if ss.repo != nil {
		return ss.repo.Rotate(ctx, sessionID, token, expiresAt, now)
	}

	query := `
		UPDATE admin_sessions
		SET token = $2, expires_at = $3, last_activity = $4
		WHERE id = $1
	`
	if _, err := ss.pool.Exec(ctx, query, sessionID, token, expiresAt, now); err != nil {
		return fmt.Errorf("failed to rotate session token: %w", err)
	}
	return nil
}

// Invalidate deletes all sessions matching the token. Idempotent: an absent
// token is not an error.
func (ss *SessionService) Invalidate(ctx context.Context, token string) error {
	if ss.repo != nil {
		return ss.repo.DeleteByToken(ctx, token)
	}

	if _, err := ss.pool.Exec(ctx, "DELETE FROM admin_sessions WHERE token = $1", token); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry or idle limit, used by
// the background cleanup
func (ss *SessionService) DeleteExpired(ctx context.Context) (int64, error) {
	idleCutoff := time.Now().Add(-ss.idleTimeout)

	if ss.repo != nil {
		return ss.repo.DeleteExpired(ctx, idleCutoff)
	}

	result, err := ss.pool.Exec(ctx,
		"DELETE FROM admin_sessions WHERE expires_at < NOW() OR last_activity < $1", idleCutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

// IdleTimeout returns the configured idle limit
func (ss *SessionService) IdleTimeout() time.Duration {
	return ss.idleTimeout
}

func (ss *SessionService) getActiveByToken(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	if ss.repo != nil {
		return ss.repo.GetActiveByToken(ctx, token, now)
	}

	row := ss.pool.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM admin_sessions WHERE token = $1 AND expires_at > $2", token, now)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (ss *SessionService) touch(ctx context.Context, id uuid.UUID, now time.Time) error {
	if ss.repo != nil {
		return ss.repo.Touch(ctx, id, now)
	}

	if _, err := ss.pool.Exec(ctx,
		"UPDATE admin_sessions SET last_activity = $2 WHERE id = $1", id, now); err != nil {
		return fmt.Errorf("failed to update session activity: %w", err)
	}
	return nil
}

func (ss *SessionService) deleteByID(ctx context.Context, id uuid.UUID) error {
	if ss.repo != nil {
		return ss.repo.DeleteByID(ctx, id)
	}

	if _, err := ss.pool.Exec(ctx, "DELETE FROM admin_sessions WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// scanSession reads one session row
func scanSession(row pgx.Row) (*models.Session, error) {
	session := &models.Session{}
	err := row.Scan(
		&session.ID, &session.AdminID, &session.Token, &session.RefreshToken,
		&session.IPAddress, &session.UserAgent, &session.ExpiresAt,
		&session.LastActivity, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return session, nil
}
