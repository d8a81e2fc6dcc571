package services

import "errors"

// Sentinel errors for explicit error handling
// These errors allow callers to distinguish between different failure modes
// using errors.Is() instead of string matching

var (
	// ErrAdminNotFound indicates no account exists for the given key
	ErrAdminNotFound = errors.New("admin account not found")

	// ErrSessionNotFound indicates no live session matches the token
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionIdle indicates the session exceeded the idle timeout
	ErrSessionIdle = errors.New("session idle timeout exceeded")

	// ErrInvalidToken indicates a malformed, forged or expired token
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmailTaken indicates an account with the email already exists
	ErrEmailTaken = errors.New("email already registered")
)
