package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BradenHooton/eduif/internal/database"
	"github.com/BradenHooton/eduif/internal/models"
)

// SQLiteAccountRepository is the credential store on a SQLite file. The
// handle returned by database.OpenSQLite has a single connection, so the
// read-modify-write in Update* never interleaves with another writer.
type SQLiteAccountRepository struct {
	db *sql.DB
}

func NewSQLiteAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func scanSQLiteAccountRow(scanner rowScanner) (*models.Account, error) {
	var acct models.Account
	var role, createdAt, updatedAt string

	err := scanner.Scan(
		&acct.ID, &acct.Username, &acct.Name, &acct.Email, &role,
		&acct.PasswordHash, &acct.FailedAttempts, &acct.Locked,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}
	acct.Role = models.Role(role)

	if acct.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if acct.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &acct, nil
}

func (r *SQLiteAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	return scanSQLiteAccountRow(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

func (r *SQLiteAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return scanSQLiteAccountRow(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username))
}

func (r *SQLiteAccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		acct, err := scanSQLiteAccountRow(rows)
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

// Create inserts an account. A zero ID takes the next free id.
func (r *SQLiteAccountRepository) Create(ctx context.Context, acct *models.Account) (*models.Account, error) {
	now := formatTime(time.Now())
	query := `
		INSERT INTO accounts (id, username, name, email, role, password_hash, failed_attempts, locked, created_at, updated_at)
		VALUES (
			COALESCE(NULLIF(?, 0), (SELECT COALESCE(MAX(id), 0) + 1 FROM accounts)),
			?, ?, ?, ?, ?, ?, ?, ?, ?
		)
		RETURNING ` + accountColumns

	created, err := scanSQLiteAccountRow(r.db.QueryRowContext(ctx, query,
		acct.ID, acct.Username, acct.Name, acct.Email, string(acct.Role),
		acct.PasswordHash, acct.FailedAttempts, acct.Locked, now, now,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return created, nil
}

func (r *SQLiteAccountRepository) UpdateByUsername(ctx context.Context, username string, fn func(*models.Account) error) (*models.Account, error) {
	return r.update(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username, fn)
}

func (r *SQLiteAccountRepository) UpdateByID(ctx context.Context, id int64, fn func(*models.Account) error) (*models.Account, error) {
	return r.update(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id, fn)
}

func (r *SQLiteAccountRepository) update(ctx context.Context, selectQuery string, key any, fn func(*models.Account) error) (*models.Account, error) {
	var updated *models.Account

	err := database.WithSQLTransaction(ctx, r.db, func(tx *sql.Tx) error {
		acct, err := scanSQLiteAccountRow(tx.QueryRowContext(ctx, selectQuery, key))
		if err != nil {
			return err
		}

		if err := fn(acct); err != nil {
			return err
		}

		query := `
			UPDATE accounts
			SET name = ?, email = ?, role = ?, password_hash = ?,
			    failed_attempts = ?, locked = ?, updated_at = ?
			WHERE id = ?
			RETURNING ` + accountColumns

		updated, err = scanSQLiteAccountRow(tx.QueryRowContext(ctx, query,
			acct.Name, acct.Email, string(acct.Role), acct.PasswordHash,
			acct.FailedAttempts, acct.Locked, formatTime(time.Now()), acct.ID,
		))
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
