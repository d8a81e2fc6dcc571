package models

import "time"

// BruteForceAttempt tracks failed authentication attempts for a
// (identifier, type) key. Rows are deleted on successful authentication.
type BruteForceAttempt struct {
	Identifier   string      `json:"identifier"`
	Type         AttemptType `json:"type"`
	Attempts     int         `json:"attempts"`
	BlockedUntil *time.Time  `json:"blocked_until"`
	FirstAttempt time.Time   `json:"first_attempt"`
	LastAttempt  time.Time   `json:"last_attempt"`
}

// Blocked reports whether the key is currently blocked.
func (b *BruteForceAttempt) Blocked(now time.Time) bool {
	return b.BlockedUntil != nil && b.BlockedUntil.After(now)
}
