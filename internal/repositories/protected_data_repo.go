package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/eduif/internal/database"
	"github.com/BradenHooton/eduif/internal/models"
)

// ProtectedDataRepository stores sealed payloads in PostgreSQL
type ProtectedDataRepository struct {
	db *database.DB
}

func NewProtectedDataRepository(db *database.DB) *ProtectedDataRepository {
	return &ProtectedDataRepository{db: db}
}

// Get returns the blob stored under key, or models.ErrNotFound
func (r *ProtectedDataRepository) Get(ctx context.Context, key string) (*models.EncryptedBlob, error) {
	var blob models.EncryptedBlob
	err := r.db.Pool.QueryRow(ctx,
		`SELECT iv, ciphertext FROM protected_data WHERE key = $1`, key,
	).Scan(&blob.IV, &blob.Ciphertext)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &blob, nil
}

// Put replaces the blob stored under key
func (r *ProtectedDataRepository) Put(ctx context.Context, key string, blob *models.EncryptedBlob) error {
	query := `
		INSERT INTO protected_data (key, iv, ciphertext, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET iv = EXCLUDED.iv, ciphertext = EXCLUDED.ciphertext, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.Pool.Exec(ctx, query, key, blob.IV, blob.Ciphertext); err != nil {
		return fmt.Errorf("failed to store protected data: %w", database.MapPostgresError(err))
	}
	return nil
}
