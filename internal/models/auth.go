package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the identity snapshot taken at login. It never carries the
// password verifier.
type Session struct {
	ID        string    `json:"-"`
	UserID    int64     `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// IsExpired checks if the session lifetime has elapsed
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// NewSession snapshots the public fields of an account
func NewSession(id string, acct *Account, issuedAt time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		UserID:    acct.ID,
		Username:  acct.Username,
		Role:      acct.Role,
		Email:     acct.Email,
		Name:      acct.Name,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(ttl),
	}
}

// SessionClaims is the signed form of a Session carried by the client
type SessionClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Session converts claims back into a session snapshot
func (c *SessionClaims) Session() *Session {
	s := &Session{
		ID:       c.ID,
		UserID:   c.UserID,
		Username: c.Username,
		Role:     c.Role,
		Email:    c.Email,
		Name:     c.Name,
	}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return s
}
