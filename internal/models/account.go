package models

import "time"

// Account is an administrator login. Visitors never have accounts; they join a
// conversation anonymously by code.
type Account struct {
	ID                  int64
	Username            string
	PasswordHash        string
	FailedLoginAttempts int
	LockedUntil         *time.Time // nil when not locked
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Locked reports whether the account lockout is still in effect at now.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}
