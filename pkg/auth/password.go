package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2id parameters for new verifiers
const (
	ArgonMemory      = 64 * 1024 // 64 MiB
	ArgonIterations  = 3
	ArgonParallelism = 2
	ArgonKeyLen      = 32
	SaltLen          = 16

	MinPasswordLen = 8
	MaxPasswordLen = 128
)

const argonPrefix = "$argon2id$"

// PasswordValidationError holds validation error details (internal use only)
type PasswordValidationError struct {
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return "invalid password: " + strings.Join(e.Errors, ", ")
}

// Common weak passwords to reject
var commonPasswords = map[string]bool{
	"password":     true,
	"12345678":     true,
	"qwerty":       true,
	"abc123":       true,
	"password123":  true,
	"password123!": true,
	"123456":       true,
	"admin":        true,
	"admin123":     true,
	"staff123":     true,
	"student123":   true,
	"letmein":      true,
	"welcome":      true,
	"123123":       true,
	"passw0rd":     true,
	"trustno1":     true,
}

// HashPassword produces a salted Argon2id verifier in PHC string form. Any
// string, including the empty one, hashes; the only failure is the system
// random source.
func HashPassword(password string) (string, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, ArgonIterations, ArgonMemory, ArgonParallelism, ArgonKeyLen)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix,
		argon2.Version,
		ArgonMemory,
		ArgonIterations,
		ArgonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword reports whether password matches the verifier.
// Argon2id and bcrypt verifiers are accepted; anything else never matches.
func VerifyPassword(verifier, password string) bool {
	switch {
	case strings.HasPrefix(verifier, argonPrefix):
		return verifyArgon2id(verifier, password)
	case isBcrypt(verifier):
		return bcrypt.CompareHashAndPassword([]byte(verifier), []byte(password)) == nil
	default:
		return false
	}
}

// NeedsRehash reports whether the verifier predates the current Argon2id parameters
func NeedsRehash(verifier string) bool {
	if !strings.HasPrefix(verifier, argonPrefix) {
		return true
	}
	params, _, _, ok := parseArgon2id(verifier)
	if !ok {
		return true
	}
	return params.memory != ArgonMemory || params.iterations != ArgonIterations || params.parallelism != ArgonParallelism
}

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

func parseArgon2id(verifier string) (argonParams, []byte, []byte, bool) {
	var params argonParams

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(verifier, "$")
	if len(parts) != 6 {
		return params, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.iterations, &params.parallelism); err != nil {
		return params, nil, nil, false
	}
	if params.iterations == 0 || params.parallelism == 0 {
		return params, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, false
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return params, nil, nil, false
	}

	return params, salt, hash, true
}

func verifyArgon2id(verifier, password string) bool {
	params, salt, hash, ok := parseArgon2id(verifier)
	if !ok {
		return false
	}
	other := argon2.IDKey([]byte(password), salt, params.iterations, params.memory, params.parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, other) == 1
}

func isBcrypt(verifier string) bool {
	return strings.HasPrefix(verifier, "$2a$") ||
		strings.HasPrefix(verifier, "$2b$") ||
		strings.HasPrefix(verifier, "$2y$")
}

// ValidatePassword enforces strong password requirements
func ValidatePassword(password string) error {
	errors := make([]string, 0)

	if len(password) < MinPasswordLen {
		errors = append(errors, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	if len(password) > MaxPasswordLen {
		errors = append(errors, fmt.Sprintf("must be at most %d characters", MaxPasswordLen))
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSpecial := false

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		errors = append(errors, "must contain at least one uppercase letter")
	}
	if !hasLower {
		errors = append(errors, "must contain at least one lowercase letter")
	}
	if !hasDigit {
		errors = append(errors, "must contain at least one digit")
	}
	if !hasSpecial {
		errors = append(errors, "must contain at least one special character")
	}

	if commonPasswords[strings.ToLower(password)] {
		errors = append(errors, "is too common")
	}

	if len(errors) > 0 {
		return &PasswordValidationError{Errors: errors}
	}

	return nil
}
