package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories"
	"golang.org/x/crypto/bcrypt"
)

const adminColumns = `id, email, password_hash, role, is_active, failed_login_attempts,
	locked_until, two_factor_enabled, two_factor_secret, backup_codes,
	last_login, last_login_ip, created_at, updated_at`

// AdminService handles admin account operations
type AdminService struct {
	pool         *pgxpool.Pool
	repo         repositories.AdminAccountRepository
	bcryptRounds int
}

// NewAdminService creates a new admin service
func NewAdminService(pool *pgxpool.Pool, bcryptRounds int) *AdminService {
	if bcryptRounds < bcrypt.MinCost {
		bcryptRounds = bcrypt.DefaultCost
	}
	return &AdminService{pool: pool, bcryptRounds: bcryptRounds}
}

// NewAdminServiceWithRepo creates a new admin service with repository (for testing)
func NewAdminServiceWithRepo(repo repositories.AdminAccountRepository, bcryptRounds int) *AdminService {
	if bcryptRounds < bcrypt.MinCost {
		bcryptRounds = bcrypt.DefaultCost
	}
	return &AdminService{repo: repo, bcryptRounds: bcryptRounds}
}

// CreateAdmin creates a new admin account with a hashed password
func (as *AdminService) CreateAdmin(ctx context.Context, email, password string, role models.AdminRole) (*models.AdminAccount, error) {
	if len(email) < 3 || len(email) > 255 {
		return nil, errors.New("email must be between 3 and 255 characters")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), as.bcryptRounds)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	admin := &models.AdminAccount{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if as.repo != nil {
		if err := as.repo.Create(ctx, admin); err != nil {
			return nil, fmt.Errorf("failed to create admin account: %w", err)
		}
		return admin, nil
	}

	query := `
		INSERT INTO admin_accounts (id, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, $5, $5)
	`
	if _, err := as.pool.Exec(ctx, query, admin.ID, email, string(hash), role, now); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create admin account: %w", err)
	}

	return admin, nil
}

// HasAdmins checks if any admin accounts exist in the database
func (as *AdminService) HasAdmins(ctx context.Context) (bool, error) {
	if as.repo != nil {
		admins, err := as.repo.List(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check admin accounts: %w", err)
		}
		return len(admins) > 0, nil
	}

	var count int
	err := as.pool.QueryRow(ctx, "SELECT COUNT(*) FROM admin_accounts").Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check admin accounts: %w", err)
	}
	return count > 0, nil
}

// GetByEmail retrieves an account by email. Returns ErrAdminNotFound when absent.
func (as *AdminService) GetByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	if as.repo != nil {
		admin, err := as.repo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			return nil, ErrAdminNotFound
		}
		return admin, nil
	}

	row := as.pool.QueryRow(ctx, "SELECT "+adminColumns+" FROM admin_accounts WHERE email = $1", email)
	return scanAdmin(row)
}

// GetByID retrieves an account by id. Returns ErrAdminNotFound when absent.
func (as *AdminService) GetByID(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	if as.repo != nil {
		admin, err := as.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			return nil, ErrAdminNotFound
		}
		return admin, nil
	}

	row := as.pool.QueryRow(ctx, "SELECT "+adminColumns+" FROM admin_accounts WHERE id = $1", id)
	return scanAdmin(row)
}

// List returns all admin accounts
func (as *AdminService) List(ctx context.Context) ([]*models.AdminAccount, error) {
	if as.repo != nil {
		return as.repo.List(ctx)
	}

	rows, err := as.pool.Query(ctx, "SELECT "+adminColumns+" FROM admin_accounts ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list admin accounts: %w", err)
	}
	defer rows.Close()

	var admins []*models.AdminAccount
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

// CheckPassword compares a submitted password against the stored hash
// (constant-time compare done by bcrypt)
func (as *AdminService) CheckPassword(admin *models.AdminAccount, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil
}

// RecordLoginFailure atomically increments the account's failure counter and
// applies the account-level lock when the new count reaches maxAttempts.
// Returns the new count and whether the account is now locked.
func (as *AdminService) RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockDuration time.Duration) (int, bool, error) {
	lockedUntil := time.Now().Add(lockDuration)

	if as.repo != nil {
		count, err := as.repo.RecordLoginFailure(ctx, id, maxAttempts, lockedUntil)
		return count, count >= maxAttempts, err
	}

	query := `
		UPDATE admin_accounts
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE WHEN failed_login_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts
	`
	var count int
	if err := as.pool.QueryRow(ctx, query, id, maxAttempts, lockedUntil).Scan(&count); err != nil {
		return 0, false, fmt.Errorf("failed to record login failure: %w", err)
	}
	return count, count >= maxAttempts, nil
}

// RecordLoginSuccess resets the failure counter, clears any account-level lock
// and stamps last login time and IP
func (as *AdminService) RecordLoginSuccess(ctx context.Context, id uuid.UUID, ip string) error {
	if as.repo != nil {
		return as.repo.RecordLoginSuccess(ctx, id, ip)
	}

	query := `
		UPDATE admin_accounts
		SET failed_login_attempts = 0, locked_until = NULL,
		    last_login = NOW(), last_login_ip = $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := as.pool.Exec(ctx, query, id, ip); err != nil {
		return fmt.Errorf("failed to record login success: %w", err)
	}
	return nil
}

// SetActive activates or deactivates an account (never hard-deletes)
func (as *AdminService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if as.repo != nil {
		return as.repo.SetActive(ctx, id, active)
	}

	if _, err := as.pool.Exec(ctx,
		"UPDATE admin_accounts SET is_active = $2, updated_at = NOW() WHERE id = $1", id, active); err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	return nil
}

// Unlock clears the account-level lockout and failure counter
func (as *AdminService) Unlock(ctx context.Context, id uuid.UUID) error {
	if as.repo != nil {
		return as.repo.Unlock(ctx, id)
	}

	if _, err := as.pool.Exec(ctx,
		"UPDATE admin_accounts SET failed_login_attempts = 0, locked_until = NULL, updated_at = NOW() WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to unlock account: %w", err)
	}
	return nil
}

// SetTwoFactorSecret stores a new TOTP secret and backup code hashes without
// enabling 2FA (enablement requires a verified code first)
func (as *AdminService) SetTwoFactorSecret(ctx context.Context, id uuid.UUID, secret string, backupCodes []string) error {
	if as.repo != nil {
		return as.repo.SetTwoFactorSecret(ctx, id, secret, backupCodes)
	}

	codes, err := json.Marshal(backupCodes)
	if err != nil {
		return fmt.Errorf("failed to encode backup codes: %w", err)
	}
	if _, err := as.pool.Exec(ctx,
		"UPDATE admin_accounts SET two_factor_secret = $2, backup_codes = $3, updated_at = NOW() WHERE id = $1",
		id, secret, codes); err != nil {
		return fmt.Errorf("failed to store two-factor secret: %w", err)
	}
	return nil
}

// SetTwoFactorEnabled flips the 2FA flag
func (as *AdminService) SetTwoFactorEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	if as.repo != nil {
		return as.repo.SetTwoFactorEnabled(ctx, id, enabled)
	}

	if _, err := as.pool.Exec(ctx,
		"UPDATE admin_accounts SET two_factor_enabled = $2, updated_at = NOW() WHERE id = $1", id, enabled); err != nil {
		return fmt.Errorf("failed to update two-factor flag: %w", err)
	}
	return nil
}

// ClearTwoFactor disables 2FA and removes the secret and backup codes
func (as *AdminService) ClearTwoFactor(ctx context.Context, id uuid.UUID) error {
	if as.repo != nil {
		return as.repo.ClearTwoFactor(ctx, id)
	}

	if _, err := as.pool.Exec(ctx,
		"UPDATE admin_accounts SET two_factor_enabled = false, two_factor_secret = NULL, backup_codes = NULL, updated_at = NOW() WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to clear two-factor configuration: %w", err)
	}
	return nil
}

// SetBackupCodes replaces the stored backup code hashes (used when a code is consumed)
func (as *AdminService) SetBackupCodes(ctx context.Context, id uuid.UUID, codes []string) error {
	if as.repo != nil {
		return as.repo.SetBackupCodes(ctx, id, codes)
	}

	encoded, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("failed to encode backup codes: %w", err)
	}
	if _, err := as.pool.Exec(ctx,
		"UPDATE admin_accounts SET backup_codes = $2, updated_at = NOW() WHERE id = $1", id, encoded); err != nil {
		return fmt.Errorf("failed to store backup codes: %w", err)
	}
	return nil
}

// scanAdmin reads one account row
func scanAdmin(row pgx.Row) (*models.AdminAccount, error) {
	admin := &models.AdminAccount{}
	var backupCodes []byte

	err := row.Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Role, &admin.IsActive,
		&admin.FailedLoginAttempts, &admin.LockedUntil, &admin.TwoFactorEnabled,
		&admin.TwoFactorSecret, &backupCodes, &admin.LastLogin, &admin.LastLoginIP,
		&admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to scan admin account: %w", err)
	}

	if len(backupCodes) > 0 {
		if err := json.Unmarshal(backupCodes, &admin.BackupCodes); err != nil {
			return nil, fmt.Errorf("failed to decode backup codes: %w", err)
		}
	}
	return admin, nil
}
