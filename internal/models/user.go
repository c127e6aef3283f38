package models

import (
	"time"
)

// Account is a credential record. PasswordHash never leaves the service layer.
type Account struct {
	ID             int64
	Username       string
	Name           string
	Email          string
	Role           Role
	PasswordHash   string
	FailedAttempts int
	Locked         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a copy that can be mutated without touching the receiver
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// ResetLockout returns the account to ACTIVE(0)
func (a *Account) ResetLockout() {
	a.FailedAttempts = 0
	a.Locked = false
}

// RegisterFailure increments the failure counter and locks the account once
// the threshold is reached. It reports whether this failure locked the account.
func (a *Account) RegisterFailure(threshold int) bool {
	a.FailedAttempts++
	if a.FailedAttempts >= threshold {
		a.Locked = true
		return true
	}
	return false
}

// RemainingAttempts returns how many failures are left before lockout
func (a *Account) RemainingAttempts(threshold int) int {
	remaining := threshold - a.FailedAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}
