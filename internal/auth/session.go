package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BradenHooton/eduif/internal/models"
)

const sessionIssuer = "eduif"

// SessionManager issues signed session tokens and keeps the server-side
// registry that makes logout effective before a token expires
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewSessionManager creates a SessionManager signing with secret (HS256)
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*models.Session),
	}
}

// TTL returns the lifetime of issued sessions
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue snapshots acct into a new session and returns it with its signed token
func (m *SessionManager) Issue(acct *models.Account) (*models.Session, string, error) {
	issuedAt := m.now().UTC().Truncate(time.Second)
	session := models.NewSession(uuid.New().String(), acct, issuedAt, m.ttl)

	claims := &models.SessionClaims{
		UserID:   session.UserID,
		Username: session.Username,
		Role:     session.Role,
		Email:    session.Email,
		Name:     session.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    sessionIssuer,
			Subject:   fmt.Sprintf("%d", session.UserID),
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			NotBefore: jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	snapshot := *session
	return &snapshot, token, nil
}

// Validate verifies the token signature and expiry and that the session is
// still registered. Any failure is models.ErrUnauthenticated.
func (m *SessionManager) Validate(token string) (*models.Session, error) {
	if token == "" {
		return nil, models.ErrUnauthenticated
	}

	claims := &models.SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}

	m.mu.RLock()
	registered, ok := m.sessions[claims.ID]
	m.mu.RUnlock()
	if !ok || registered.UserID != claims.UserID || registered.IsExpired(m.now()) {
		return nil, models.ErrUnauthenticated
	}

	return claims.Session(), nil
}

// Revoke destroys a session. It reports whether the session existed.
func (m *SessionManager) Revoke(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// PurgeExpired drops every expired session and returns how many were removed
func (m *SessionManager) PurgeExpired() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		if session.IsExpired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Active returns the number of registered sessions
func (m *SessionManager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IsUnauthenticated reports whether err came from a rejected session
func IsUnauthenticated(err error) bool {
	return errors.Is(err, models.ErrUnauthenticated)
}
