package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BradenHooton/eduif/internal/database"
	"github.com/BradenHooton/eduif/internal/models"
)

const accountColumns = `id, username, name, email, role, password_hash, failed_attempts, locked, created_at, updated_at`

// AccountRepository is the PostgreSQL credential store
type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var acct models.Account
	var role string

	err := scanner.Scan(
		&acct.ID, &acct.Username, &acct.Name, &acct.Email, &role,
		&acct.PasswordHash, &acct.FailedAttempts, &acct.Locked,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	acct.Role = models.Role(role)

	return &acct, nil
}

func scanAccountRows(rows pgx.Rows) ([]*models.Account, error) {
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		acct, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, username))
}

// List returns every account ordered by id
func (r *AccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return scanAccountRows(rows)
}

// Create inserts an account. A zero ID takes the next free id.
func (r *AccountRepository) Create(ctx context.Context, acct *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, username, name, email, role, password_hash, failed_attempts, locked)
		VALUES (
			COALESCE(NULLIF($1::bigint, 0), (SELECT COALESCE(MAX(id), 0) + 1 FROM accounts)),
			$2, $3, $4, $5, $6, $7, $8
		)
		RETURNING ` + accountColumns

	created, err := scanAccountRow(r.db.Pool.QueryRow(ctx, query,
		acct.ID, acct.Username, acct.Name, acct.Email, string(acct.Role),
		acct.PasswordHash, acct.FailedAttempts, acct.Locked,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return created, nil
}

// UpdateByUsername locks the account row, applies fn and writes the result
// back in one transaction. If fn fails nothing is written and its error is
// returned unchanged.
func (r *AccountRepository) UpdateByUsername(ctx context.Context, username string, fn func(*models.Account) error) (*models.Account, error) {
	return r.update(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1 FOR UPDATE`, username, fn)
}

// UpdateByID is UpdateByUsername keyed by id
func (r *AccountRepository) UpdateByID(ctx context.Context, id int64, fn func(*models.Account) error) (*models.Account, error) {
	return r.update(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id, fn)
}

func (r *AccountRepository) update(ctx context.Context, selectQuery string, key any, fn func(*models.Account) error) (*models.Account, error) {
	var updated *models.Account

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		acct, err := scanAccountRow(tx.QueryRow(ctx, selectQuery, key))
		if err != nil {
			return err
		}

		if err := fn(acct); err != nil {
			return err
		}

		query := `
			UPDATE accounts
			SET name = $2, email = $3, role = $4, password_hash = $5,
			    failed_attempts = $6, locked = $7, updated_at = $8
			WHERE id = $1
			RETURNING ` + accountColumns

		updated, err = scanAccountRow(tx.QueryRow(ctx, query,
			acct.ID, acct.Name, acct.Email, string(acct.Role), acct.PasswordHash,
			acct.FailedAttempts, acct.Locked, time.Now().UTC(),
		))
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
