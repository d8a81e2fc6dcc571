package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/repositories/mock"
)

// TestRecordFailedAttempt_BlocksAtThreshold tests that the fifth failure
// activates the block
func TestRecordFailedAttempt_BlocksAtThreshold(t *testing.T) {
	repo := mock.NewBruteForceRepository()
	bs := NewBruteForceServiceWithRepo(repo, 5, time.Hour)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		attempts, blocked, err := bs.RecordFailedAttempt(ctx, "admin@example.com", models.AttemptTypeEmail)
		require.NoError(t, err)
		assert.Equal(t, i, attempts)
		assert.False(t, blocked, "attempt %d should not trigger a block", i)
	}

	attempts, blocked, err := bs.RecordFailedAttempt(ctx, "admin@example.com", models.AttemptTypeEmail)
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
	assert.True(t, blocked, "fifth attempt should trigger the block")

	isBlocked, err := bs.IsBlocked(ctx, "admin@example.com", models.AttemptTypeEmail)
	require.NoError(t, err)
	assert.True(t, isBlocked)
}

// TestRecordFailedAttempt_KeysAreIndependent tests that attempts for one
// key never affect another
func TestRecordFailedAttempt_KeysAreIndependent(t *testing.T) {
	repo := mock.NewBruteForceRepository()
	bs := NewBruteForceServiceWithRepo(repo, 5, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := bs.RecordFailedAttempt(ctx, "a@example.com", models.AttemptTypeEmail)
		require.NoError(t, err)
	}

	blocked, err := bs.IsBlocked(ctx, "b@example.com", models.AttemptTypeEmail)
	require.NoError(t, err)
	assert.False(t, blocked, "unrelated key must not be blocked")

	// Same identifier under a different type is a different key
	blocked, err = bs.IsBlocked(ctx, "a@example.com", models.AttemptTypeIP)
	require.NoError(t, err)
	assert.False(t, blocked)
}

// TestResetAttempts_CountRestartsAtOne tests that a failure after a reset
// starts a fresh count
func TestResetAttempts_CountRestartsAtOne(t *testing.T) {
	repo := mock.NewBruteForceRepository()
	bs := NewBruteForceServiceWithRepo(repo, 5, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := bs.RecordFailedAttempt(ctx, "admin@example.com", models.AttemptTypeEmail)
		require.NoError(t, err)
	}

	require.NoError(t, bs.ResetAttempts(ctx, "admin@example.com", models.AttemptTypeEmail))

	attempts, blocked, err := bs.RecordFailedAttempt(ctx, "admin@example.com", models.AttemptTypeEmail)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "count must restart at 1 after a reset")
	assert.False(t, blocked)
}

// TestIsBlocked_LazyExpiry tests that an elapsed block reads as unblocked
// and resets the stored counter
func TestIsBlocked_LazyExpiry(t *testing.T) {
	repo := mock.NewBruteForceRepository()
	bs := NewBruteForceServiceWithRepo(repo, 5, 10*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := bs.RecordFailedAttempt(ctx, "admin@example.com", models.AttemptTypeEmail)
		require.NoError(t, err)
	}

	blocked, err := bs.IsBlocked(ctx, "admin@example.com", models.AttemptTypeEmail)
	require.NoError(t, err)
	require.True(t, blocked)

	time.Sleep(20 * time.Millisecond)

	blocked, err = bs.IsBlocked(ctx, "admin@example.com", models.AttemptTypeEmail)
	require.NoError(t, err)
	assert.False(t, blocked, "elapsed block must read as unblocked")

	attempts, err := bs.Attempts(ctx, "admin@example.com", models.AttemptTypeEmail)
	require.NoError(t, err)
	assert.Equal(t, 0, attempts, "elapsed block must reset the counter")
}

// TestIsBlocked_NoRecord tests the default state for an unseen key
func TestIsBlocked_NoRecord(t *testing.T) {
	repo := mock.NewBruteForceRepository()
	bs := NewBruteForceServiceWithRepo(repo, 5, time.Hour)

	blocked, err := bs.IsBlocked(context.Background(), "nobody@example.com", models.AttemptTypeEmail)
	require.NoError(t, err)
	assert.False(t, blocked)
}
