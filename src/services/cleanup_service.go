package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/salespilot/admin-auth-server/src/logging"
)

// CleanupService periodically removes expired sessions and brute-force
// attempt rows whose block window has long elapsed. The brute-force guard
// already lazily expires blocks on read; this sweep only prunes rows nobody
// read again.
type CleanupService struct {
	pool     *pgxpool.Pool
	sessions *SessionService
	enabled  bool
	interval time.Duration
	done     chan bool
	logger   zerolog.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(pool *pgxpool.Pool, sessions *SessionService, enabled bool) *CleanupService {
	return &CleanupService{
		pool:     pool,
		sessions: sessions,
		enabled:  enabled,
		interval: time.Hour,
		done:     make(chan bool, 1),
		logger:   logging.NewLogger("cleanup"),
	}
}

// Start starts the cleanup loop
func (cs *CleanupService) Start(ctx context.Context) {
	if !cs.enabled {
		cs.logger.Info().Msg("cleanup service is disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				cs.logger.Info().Msg("cleanup service stopped")
				return
			case <-cs.done:
				cs.logger.Info().Msg("cleanup service stopped")
				return
			case <-ticker.C:
				cs.cleanup(ctx)
			}
		}
	}()

	cs.logger.Info().Msg("cleanup service started")
}

// Stop stops the cleanup loop
func (cs *CleanupService) Stop() {
	cs.done <- true
}

func (cs *CleanupService) cleanup(ctx context.Context) {
	sessions, err := cs.sessions.DeleteExpired(ctx)
	if err != nil {
		cs.logger.Error().Err(err).Msg("session cleanup failed")
	} else if sessions > 0 {
		cs.logger.Info().Int64("deleted", sessions).Msg("expired sessions removed")
	}

	result, err := cs.pool.Exec(ctx,
		"DELETE FROM brute_force_attempts WHERE blocked_until IS NOT NULL AND blocked_until < NOW() - INTERVAL '24 hours'")
	if err != nil {
		cs.logger.Error().Err(err).Msg("brute-force cleanup failed")
		return
	}
	if deleted := result.RowsAffected(); deleted > 0 {
		cs.logger.Info().Int64("deleted", deleted).Msg("stale attempt records removed")
	}
}
