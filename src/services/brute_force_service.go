package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories"
)

// BruteForceService tracks failed authentication attempts per
// (identifier, type) key and computes lockout windows. Expiry is lazy:
// reading an elapsed block resets the record, no background sweep is needed
// (the cleanup service still prunes long-dead rows).
type BruteForceService struct {
	pool          *pgxpool.Pool
	repo          repositories.BruteForceRepository
	maxAttempts   int
	blockDuration time.Duration
}

// NewBruteForceService creates a new brute force guard
func NewBruteForceService(pool *pgxpool.Pool, maxAttempts int, blockDuration time.Duration) *BruteForceService {
	return &BruteForceService{pool: pool, maxAttempts: maxAttempts, blockDuration: blockDuration}
}

// NewBruteForceServiceWithRepo creates a new brute force guard with repository (for testing)
func NewBruteForceServiceWithRepo(repo repositories.BruteForceRepository, maxAttempts int, blockDuration time.Duration) *BruteForceService {
	return &BruteForceService{repo: repo, maxAttempts: maxAttempts, blockDuration: blockDuration}
}

// RecordFailedAttempt increments the counter for the key, creating the record
// if absent, and applies the block when the new count reaches the maximum.
// The increment is a single atomic increment-and-fetch so concurrent failures
// for one key cannot undercount.
func (bs *BruteForceService) RecordFailedAttempt(ctx context.Context, identifier string, attemptType models.AttemptType) (attempts int, blocked bool, err error) {
	blockedUntil := time.Now().Add(bs.blockDuration)

	if bs.repo != nil {
		rec, err := bs.repo.Increment(ctx, identifier, attemptType, bs.maxAttempts, blockedUntil)
		if err != nil {
			return 0, false, err
		}
		return rec.Attempts, rec.Blocked(time.Now()), nil
	}

	query := `
		INSERT INTO brute_force_attempts (identifier, attempt_type, attempts, blocked_until, first_attempt, last_attempt)
		VALUES ($1, $2, 1, CASE WHEN 1 >= $3 THEN $4 END, NOW(), NOW())
		ON CONFLICT (identifier, attempt_type) DO UPDATE
		SET attempts = brute_force_attempts.attempts + 1,
		    last_attempt = NOW(),
		    blocked_until = CASE WHEN brute_force_attempts.attempts + 1 >= $3 THEN $4
		                         ELSE brute_force_attempts.blocked_until END
		RETURNING attempts, blocked_until
	`
	var until *time.Time
	if err := bs.pool.QueryRow(ctx, query, identifier, attemptType, bs.maxAttempts, blockedUntil).Scan(&attempts, &until); err != nil {
		return 0, false, fmt.Errorf("failed to record attempt: %w", err)
	}
	return attempts, until != nil && until.After(time.Now()), nil
}

// IsBlocked reports whether the key is currently blocked. As a side effect,
// an elapsed block resets the stored counter to 0 and clears blocked_until.
func (bs *BruteForceService) IsBlocked(ctx context.Context, identifier string, attemptType models.AttemptType) (bool, error) {
	rec, err := bs.get(ctx, identifier, attemptType)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	now := time.Now()
	if rec.Blocked(now) {
		return true, nil
	}

	// Lazy expiry: the block window has passed, reset the counter
	if rec.BlockedUntil != nil {
		if err := bs.clearBlock(ctx, identifier, attemptType); err != nil {
			return false, err
		}
	}
	return false, nil
}

// ResetAttempts deletes the record entirely, called after any successful
// authentication for the identifier
func (bs *BruteForceService) ResetAttempts(ctx context.Context, identifier string, attemptType models.AttemptType) error {
	if bs.repo != nil {
		return bs.repo.Delete(ctx, identifier, attemptType)
	}

	if _, err := bs.pool.Exec(ctx,
		"DELETE FROM brute_force_attempts WHERE identifier = $1 AND attempt_type = $2", identifier, attemptType); err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	return nil
}

// Attempts returns the current counter for the key (0 when no record exists)
func (bs *BruteForceService) Attempts(ctx context.Context, identifier string, attemptType models.AttemptType) (int, error) {
	rec, err := bs.get(ctx, identifier, attemptType)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}
	return rec.Attempts, nil
}

func (bs *BruteForceService) get(ctx context.Context, identifier string, attemptType models.AttemptType) (*models.BruteForceAttempt, error) {
	if bs.repo != nil {
		return bs.repo.Get(ctx, identifier, attemptType)
	}

	query := `
		SELECT identifier, attempt_type, attempts, blocked_until, first_attempt, last_attempt
		FROM brute_force_attempts
		WHERE identifier = $1 AND attempt_type = $2
	`
	rec := &models.BruteForceAttempt{}
	err := bs.pool.QueryRow(ctx, query, identifier, attemptType).Scan(
		&rec.Identifier, &rec.Type, &rec.Attempts, &rec.BlockedUntil, &rec.FirstAttempt, &rec.LastAttempt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read attempt record: %w", err)
	}
	return rec, nil
}

func (bs *BruteForceService) clearBlock(ctx context.Context, identifier string, attemptType models.AttemptType) error {
	if bs.repo != nil {
		return bs.repo.ClearBlock(ctx, identifier, attemptType)
	}

	if _, err := bs.pool.Exec(ctx,
		"UPDATE brute_force_attempts SET attempts = 0, blocked_until = NULL WHERE identifier = $1 AND attempt_type = $2",
		identifier, attemptType); err != nil {
		return fmt.Errorf("failed to clear block: %w", err)
	}
	return nil
}
