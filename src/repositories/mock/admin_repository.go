package mock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories"
)

// AdminAccountRepository is a mock implementation of repositories.AdminAccountRepository
type AdminAccountRepository struct {
	// Function stubs that can be overridden in tests
	CreateFunc              func(ctx context.Context, admin *models.AdminAccount) error
	GetByEmailFunc          func(ctx context.Context, email string) (*models.AdminAccount, error)
	GetByIDFunc             func(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error)
	ListFunc                func(ctx context.Context) ([]*models.AdminAccount, error)
	RecordLoginFailureFunc  func(ctx context.Context, id uuid.UUID, maxAttempts int, lockedUntil time.Time) (int, error)
	RecordLoginSuccessFunc  func(ctx context.Context, id uuid.UUID, ip string) error
	SetActiveFunc           func(ctx context.Context, id uuid.UUID, active bool) error
	UnlockFunc              func(ctx context.Context, id uuid.UUID) error
	SetTwoFactorSecretFunc  func(ctx context.Context, id uuid.UUID, secret string, backupCodes []string) error
	SetTwoFactorEnabledFunc func(ctx context.Context, id uuid.UUID, enabled bool) error
	ClearTwoFactorFunc      func(ctx context.Context, id uuid.UUID) error
	SetBackupCodesFunc      func(ctx context.Context, id uuid.UUID, codes []string) error

	// Call tracking
	Calls map[string][]interface{}
}

// NewAdminAccountRepository creates a new mock admin account repository
func NewAdminAccountRepository() *AdminAccountRepository {
	return &AdminAccountRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *AdminAccountRepository) Create(ctx context.Context, admin *models.AdminAccount) error {
	m.Calls["Create"] = append(m.Calls["Create"], admin)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, admin)
	}
	return nil
}

func (m *AdminAccountRepository) GetByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	m.Calls["GetByEmail"] = append(m.Calls["GetByEmail"], email)
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *AdminAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	m.Calls["GetByID"] = append(m.Calls["GetByID"], id)
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *AdminAccountRepository) List(ctx context.Context) ([]*models.AdminAccount, error) {
	m.Calls["List"] = append(m.Calls["List"], nil)
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *AdminAccountRepository) RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockedUntil time.Time) (int, error) {
	m.Calls["RecordLoginFailure"] = append(m.Calls["RecordLoginFailure"], id)
	if m.RecordLoginFailureFunc != nil {
		return m.RecordLoginFailureFunc(ctx, id, maxAttempts, lockedUntil)
	}
	return 1, nil
}

func (m *AdminAccountRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID, ip string) error {
	m.Calls["RecordLoginSuccess"] = append(m.Calls["RecordLoginSuccess"], id)
	if m.RecordLoginSuccessFunc != nil {
		return m.RecordLoginSuccessFunc(ctx, id, ip)
	}
	return nil
}

func (m *AdminAccountRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m.Calls["SetActive"] = append(m.Calls["SetActive"], id)
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	return nil
}

func (m *AdminAccountRepository) Unlock(ctx context.Context, id uuid.UUID) error {
	m.Calls["Unlock"] = append(m.Calls["Unlock"], id)
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, id)
	}
	return nil
}

func (m *AdminAccountRepository) SetTwoFactorSecret(ctx context.Context, id uuid.UUID, secret string, backupCodes []string) error {
	m.Calls["SetTwoFactorSecret"] = append(m.Calls["SetTwoFactorSecret"], id)
	if m.SetTwoFactorSecretFunc != nil {
		return m.SetTwoFactorSecretFunc(ctx, id, secret, backupCodes)
	}
	return nil
}

func (m *AdminAccountRepository) SetTwoFactorEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	m.Calls["SetTwoFactorEnabled"] = append(m.Calls["SetTwoFactorEnabled"], id)
	if m.SetTwoFactorEnabledFunc != nil {
		return m.SetTwoFactorEnabledFunc(ctx, id, enabled)
	}
	return nil
}

func (m *AdminAccountRepository) ClearTwoFactor(ctx context.Context, id uuid.UUID) error {
	m.Calls["ClearTwoFactor"] = append(m.Calls["ClearTwoFactor"], id)
	if m.ClearTwoFactorFunc != nil {
		return m.ClearTwoFactorFunc(ctx, id)
	}
	return nil
}

func (m *AdminAccountRepository) SetBackupCodes(ctx context.Context, id uuid.UUID, codes []string) error {
	m.Calls["SetBackupCodes"] = append(m.Calls["SetBackupCodes"], id)
	if m.SetBackupCodesFunc != nil {
		return m.SetBackupCodesFunc(ctx, id, codes)
	}
	return nil
}

// Ensure AdminAccountRepository implements the interface
var _ repositories.AdminAccountRepository = (*AdminAccountRepository)(nil)
