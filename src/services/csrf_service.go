package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// CSRFIssuer issues and validates single-use CSRF tokens
type CSRFIssuer interface {
	Issue() (string, error)
	Validate(token string) bool
}

// CSRFService holds single-use, time-limited tokens in process memory.
// Process-local by design: running multiple replicas requires swapping this
// for a shared keyed store behind the same interface.
type CSRFService struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	ttl    time.Duration
}

// NewCSRFService creates a new in-memory CSRF token issuer
func NewCSRFService(ttl time.Duration) *CSRFService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CSRFService{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
	}
}

// Issue generates a cryptographically random 256-bit token, stores it with
// an expiry and schedules its own removal
func (cs *CSRFService) Issue() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	token := hex.EncodeToString(raw)

	cs.mu.Lock()
	cs.tokens[token] = time.Now().Add(cs.ttl)
	cs.mu.Unlock()

	// Expiry sweep for this token; deleting an already-consumed key is a no-op
	time.AfterFunc(cs.ttl, func() {
		cs.mu.Lock()
		delete(cs.tokens, token)
		cs.mu.Unlock()
	})

	return token, nil
}

// Validate is consume-on-check: the token is removed regardless of outcome,
// and the result reports whether it was present and unexpired at lookup time
func (cs *CSRFService) Validate(token string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	expiresAt, ok := cs.tokens[token]
	if ok {
		delete(cs.tokens, token)
	}
	return ok && time.Now().Before(expiresAt)
}

// Count returns the number of live tokens (used by tests)
func (cs *CSRFService) Count() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.tokens)
}

var _ CSRFIssuer = (*CSRFService)(nil)
