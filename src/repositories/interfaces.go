package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salespilot/admin-auth-server/src/models"
)

// AdminAccountRepository defines the interface for admin account data access
type AdminAccountRepository interface {
	Create(ctx context.Context, admin *models.AdminAccount) error
	GetByEmail(ctx context.Context, email string) (*models.AdminAccount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error)
	List(ctx context.Context) ([]*models.AdminAccount, error)

	// RecordLoginFailure atomically increments failed_login_attempts and sets
	// locked_until when the new count reaches maxAttempts. Returns the new count.
	RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockedUntil time.Time) (int, error)

	// RecordLoginSuccess resets failure bookkeeping and stamps last login
	RecordLoginSuccess(ctx context.Context, id uuid.UUID, ip string) error

	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Unlock(ctx context.Context, id uuid.UUID) error

	SetTwoFactorSecret(ctx context.Context, id uuid.UUID, secret string, backupCodes []string) error
	SetTwoFactorEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
	ClearTwoFactor(ctx context.Context, id uuid.UUID) error
	SetBackupCodes(ctx context.Context, id uuid.UUID, codes []string) error
}

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error

	// GetActiveByToken returns the session matching token with expires_at > now
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)

	// Touch updates last_activity
	Touch(ctx context.Context, id uuid.UUID, now time.Time) error

	// Rotate replaces the access token and extends expiry on refresh
	Rotate(ctx context.Context, id uuid.UUID, token string, expiresAt, now time.Time) error

	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, idleCutoff time.Time) (int64, error)
}

// BruteForceRepository defines the interface for failed-attempt counter access
type BruteForceRepository interface {
	// Increment is a single atomic increment-and-fetch upsert. blockedUntil is
	// applied when the resulting count reaches maxAttempts.
	Increment(ctx context.Context, identifier string, attemptType models.AttemptType, maxAttempts int, blockedUntil time.Time) (*models.BruteForceAttempt, error)

	Get(ctx context.Context, identifier string, attemptType models.AttemptType) (*models.BruteForceAttempt, error)

	// ClearBlock resets the counter to 0 and clears blocked_until (lazy expiry)
	ClearBlock(ctx context.Context, identifier string, attemptType models.AttemptType) error

	Delete(ctx context.Context, identifier string, attemptType models.AttemptType) error
	DeleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

// AuditLogRepository defines the interface for the append-only audit trail
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	List(ctx context.Context, limit, offset int) ([]*models.AuditLogEntry, error)
}
