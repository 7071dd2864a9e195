package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrAccountLocked     = errors.New("account is temporarily locked")
	ErrSessionExpired    = errors.New("session expired")
)

// ValidationError is a user-fixable request error (422). Message names the
// offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a field-describing validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RateLimitedError carries the backoff estimate surfaced to the caller.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry in ~%ds", int(e.RetryAfter.Seconds()))
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimitExceeded }

// InvalidCredentialsError is returned for a wrong password against an existing
// account. Attempt counts help legitimate users without revealing whether a
// username exists: the nonexistent-user path returns bare ErrUnauthorized with
// no counts attached.
type InvalidCredentialsError struct {
	Attempts    int
	MaxAttempts int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials (attempt %d of %d)", e.Attempts, e.MaxAttempts)
}

func (e *InvalidCredentialsError) Unwrap() error { return ErrUnauthorized }

// Remaining reports attempts left before the account locks.
func (e *InvalidCredentialsError) Remaining() int {
	if r := e.MaxAttempts - e.Attempts; r > 0 {
		return r
	}
	return 0
}

// AccountLockedError is returned once the failed-attempt threshold locks the
// account, including on the attempt that triggered the lock.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string { return "account is temporarily locked" }

func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }
