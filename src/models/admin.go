package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminAccount represents an admin console account.
// Accounts are never hard-deleted; deactivation flips IsActive instead.
type AdminAccount struct {
	ID                  uuid.UUID  `json:"id"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"` // never expose
	Role                AdminRole  `json:"role"`
	IsActive            bool       `json:"is_active"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	TwoFactorEnabled    bool       `json:"two_factor_enabled"`
	TwoFactorSecret     *string    `json:"-"` // base32, never expose
	BackupCodes         []string   `json:"-"` // bcrypt hashes
	LastLogin           *time.Time `json:"last_login"`
	LastLoginIP         *string    `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsLocked reports whether the account-level lockout is currently in effect.
// A locked_until in the past means the account is implicitly unlocked.
func (a *AdminAccount) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// PublicAdmin is the subset of account fields safe to return to clients.
type PublicAdmin struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Role             AdminRole  `json:"role"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
}

// Public returns the client-facing view of the account.
func (a *AdminAccount) Public() PublicAdmin {
	return PublicAdmin{
		ID:               a.ID,
		Email:            a.Email,
		Role:             a.Role,
		TwoFactorEnabled: a.TwoFactorEnabled,
		LastLogin:        a.LastLogin,
	}
}
