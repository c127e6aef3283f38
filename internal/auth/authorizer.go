package auth

import (
	"time"

	"github.com/BradenHooton/eduif/internal/models"
)

// Authorizer decides whether a session may perform an operation.
// It holds no state beyond its clock.
type Authorizer struct {
	now func() time.Time
}

func NewAuthorizer() *Authorizer {
	return &Authorizer{now: time.Now}
}

// RequireAuthenticated fails with models.ErrUnauthenticated for a missing or
// expired session
func (a *Authorizer) RequireAuthenticated(session *models.Session) error {
	if session == nil || session.IsExpired(a.now()) {
		return models.ErrUnauthenticated
	}
	return nil
}

// RequireRole additionally fails with models.ErrForbidden when the session
// role does not include required
func (a *Authorizer) RequireRole(session *models.Session, required models.Role) error {
	if err := a.RequireAuthenticated(session); err != nil {
		return err
	}
	if !session.Role.Satisfies(required) {
		return models.ErrForbidden
	}
	return nil
}
