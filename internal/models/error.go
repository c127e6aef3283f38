package models

import (
	"errors"

	"github.com/BradenHooton/eduif/pkg/vault"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication and authorization errors
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrAccountLocked     = errors.New("account is locked")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrForbidden         = errors.New("insufficient permissions")

	// Protected data errors
	ErrDecryption      = vault.ErrDecryption
	ErrDataUnavailable = errors.New("no protected data stored")

	// ErrPersistence wraps failures of the durable store
	ErrPersistence = errors.New("persistence failure")
)
