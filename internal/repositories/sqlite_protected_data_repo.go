package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BradenHooton/eduif/internal/database"
	"github.com/BradenHooton/eduif/internal/models"
)

type SQLiteProtectedDataRepository struct {
	db *sql.DB
}

func NewSQLiteProtectedDataRepository(db *sql.DB) *SQLiteProtectedDataRepository {
	return &SQLiteProtectedDataRepository{db: db}
}

func (r *SQLiteProtectedDataRepository) Get(ctx context.Context, key string) (*models.EncryptedBlob, error) {
	var blob models.EncryptedBlob
	err := r.db.QueryRowContext(ctx,
		`SELECT iv, ciphertext FROM protected_data WHERE key = ?`, key,
	).Scan(&blob.IV, &blob.Ciphertext)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}
	return &blob, nil
}

func (r *SQLiteProtectedDataRepository) Put(ctx context.Context, key string, blob *models.EncryptedBlob) error {
	query := `
		INSERT INTO protected_data (key, iv, ciphertext, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET iv = excluded.iv, ciphertext = excluded.ciphertext, updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, blob.IV, blob.Ciphertext, formatTime(time.Now())); err != nil {
		return fmt.Errorf("failed to store protected data: %w", database.MapSQLiteError(err))
	}
	return nil
}
