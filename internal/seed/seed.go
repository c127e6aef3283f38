// Package seed creates the initial identities and protected payload on an
// empty store. Existing accounts and data are never overwritten.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"

	"github.com/BradenHooton/eduif/internal/config"
	"github.com/BradenHooton/eduif/internal/models"
	pkgauth "github.com/BradenHooton/eduif/pkg/auth"
)

// Identity is one account to create at startup
type Identity struct {
	ID       int64       `toml:"id"`
	Username string      `toml:"username"`
	Name     string      `toml:"name"`
	Email    string      `toml:"email"`
	Role     models.Role `toml:"role"`
	Password string      `toml:"password"`
}

// File is the TOML seed file:
//
//	[[accounts]]
//	username = "admin"
//	password = "..."
//
//	[[protected_data.students]]
//	id = 1
//	name = "Ana"
//
// Accounts named like a default identity override its fields; other entries
// add identities. protected_data is stored as its JSON rendering.
type File struct {
	Accounts      []Identity     `toml:"accounts"`
	ProtectedData map[string]any `toml:"protected_data"`
}

// Plan is what a Seeder will try to create
type Plan struct {
	Identities    []Identity
	ProtectedData map[string]any
}

// DefaultIdentities returns the built-in admin, staff and student accounts
// without passwords
func DefaultIdentities() []Identity {
	return []Identity{
		{ID: 1, Username: "admin", Name: "Administrator", Email: "admin@eduif.com", Role: models.RoleAdmin},
		{ID: 2, Username: "staff", Name: "Staff Member", Email: "staff@eduif.com", Role: models.RoleStaff},
		{ID: 3, Username: "student", Name: "Student User", Email: "student@eduif.com", Role: models.RoleStudent},
	}
}

// LoadFile decodes a TOML seed file
func LoadFile(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in seed file: %v", undecoded)
	}
	return &f, nil
}

// BuildPlan merges the defaults, the per-identity password variables and,
// when configured, the seed file. File values win.
func BuildPlan(cfg config.SeedConfig) (*Plan, error) {
	identities := DefaultIdentities()
	passwords := map[string]string{
		"admin":   cfg.AdminPassword,
		"staff":   cfg.StaffPassword,
		"student": cfg.StudentPassword,
	}
	for i := range identities {
		identities[i].Password = passwords[identities[i].Username]
	}

	plan := &Plan{Identities: identities}
	if cfg.File == "" {
		return plan, nil
	}

	f, err := LoadFile(cfg.File)
	if err != nil {
		return nil, err
	}

	for _, entry := range f.Accounts {
		if entry.Username == "" {
			return nil, fmt.Errorf("seed account without username")
		}
		if entry.Role != "" {
			role, err := models.ParseRole(string(entry.Role))
			if err != nil {
				return nil, fmt.Errorf("seed account %q: invalid role %q", entry.Username, entry.Role)
			}
			entry.Role = role
		}
		plan.merge(entry)
	}
	plan.ProtectedData = f.ProtectedData

	return plan, nil
}

func (p *Plan) merge(entry Identity) {
	for i := range p.Identities {
		existing := &p.Identities[i]
		if existing.Username != entry.Username {
			continue
		}
		if entry.ID != 0 {
			existing.ID = entry.ID
		}
		if entry.Name != "" {
			existing.Name = entry.Name
		}
		if entry.Email != "" {
			existing.Email = entry.Email
		}
		if entry.Role != "" {
			existing.Role = entry.Role
		}
		if entry.Password != "" {
			existing.Password = entry.Password
		}
		return
	}

	if entry.Role == "" {
		entry.Role = models.RoleStudent
	}
	p.Identities = append(p.Identities, entry)
}

// AccountStore is the part of the account repository seeding needs
type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	Create(ctx context.Context, acct *models.Account) (*models.Account, error)
}

// DataSeeder stores the protected payload if none exists
type DataSeeder interface {
	SeedIfEmpty(ctx context.Context, payload any) (bool, error)
}

// Result counts what a run did
type Result struct {
	Created  []string
	Existing []string
	Skipped  []string
	Data     bool
}

// Seeder applies a Plan
type Seeder struct {
	accounts AccountStore
	data     DataSeeder
	logger   *slog.Logger
}

func NewSeeder(accounts AccountStore, data DataSeeder, logger *slog.Logger) *Seeder {
	return &Seeder{accounts: accounts, data: data, logger: logger}
}

// Run creates every planned identity that does not exist yet. Identities
// without a password are skipped; no account is ever created with a
// built-in secret.
func (s *Seeder) Run(ctx context.Context, plan *Plan) (*Result, error) {
	result := &Result{}

	for _, id := range plan.Identities {
		_, err := s.accounts.GetByUsername(ctx, id.Username)
		if err == nil {
			result.Existing = append(result.Existing, id.Username)
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return result, fmt.Errorf("failed to look up seed account %q: %w", id.Username, err)
		}

		if id.Password == "" {
			s.logger.Warn("no password configured for seed account, skipping", slog.String("username", id.Username))
			result.Skipped = append(result.Skipped, id.Username)
			continue
		}
		if err := pkgauth.ValidatePassword(id.Password); err != nil {
			s.logger.Warn("seed account password is weak", slog.String("username", id.Username), slog.Any("reason", err))
		}

		hash, err := pkgauth.HashPassword(id.Password)
		if err != nil {
			return result, fmt.Errorf("failed to hash seed password for %q: %w", id.Username, err)
		}

		_, err = s.accounts.Create(ctx, &models.Account{
			ID:           id.ID,
			Username:     id.Username,
			Name:         id.Name,
			Email:        id.Email,
			Role:         id.Role,
			PasswordHash: hash,
		})
		if err != nil {
			return result, fmt.Errorf("failed to create seed account %q: %w", id.Username, err)
		}

		s.logger.Info("seed account created", slog.String("username", id.Username), slog.String("role", id.Role.String()))
		result.Created = append(result.Created, id.Username)
	}

	if plan.ProtectedData != nil && s.data != nil {
		stored, err := s.data.SeedIfEmpty(ctx, plan.ProtectedData)
		if err != nil {
			return result, fmt.Errorf("failed to seed protected data: %w", err)
		}
		if stored {
			s.logger.Info("protected data seeded")
		}
		result.Data = stored
	}

	return result, nil
}
