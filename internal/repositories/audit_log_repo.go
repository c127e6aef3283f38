package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BradenHooton/eduif/internal/database"
	"github.com/BradenHooton/eduif/internal/models"
)

// AuditLogRepository is the PostgreSQL activity trail. The id sequence gives
// the append order.
type AuditLogRepository struct {
	db *database.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func scanAuditRecordRow(row rowScanner) (*models.AuditRecord, error) {
	var rec models.AuditRecord
	var action string

	err := row.Scan(&rec.ID, &rec.Timestamp, &rec.Username, &action, &rec.Details, &rec.IPAddress)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	rec.Action = models.AuditAction(action)

	return &rec, nil
}

func scanAuditRecordRows(rows pgx.Rows) ([]*models.AuditRecord, error) {
	defer rows.Close()

	records := make([]*models.AuditRecord, 0)
	for rows.Next() {
		rec, err := scanAuditRecordRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return records, nil
}

// Append stores rec and assigns its sequence id
func (r *AuditLogRepository) Append(ctx context.Context, rec *models.AuditRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_logs (timestamp, username, action, details, ip_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		rec.Timestamp, rec.Username, string(rec.Action), rec.Details, rec.IPAddress,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", database.MapPostgresError(err))
	}

	return nil
}

// Recent returns the last limit records, oldest first
func (r *AuditLogRepository) Recent(ctx context.Context, limit int) ([]*models.AuditRecord, error) {
	if limit < 0 {
		limit = 0
	}

	query := `
		SELECT id, timestamp, username, action, details, ip_address
		FROM (
			SELECT id, timestamp, username, action, details, ip_address
			FROM audit_logs
			ORDER BY id DESC
			LIMIT $1
		) recent
		ORDER BY id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}

	return scanAuditRecordRows(rows)
}

// Trim keeps the newest keep records and reports how many were removed
func (r *AuditLogRepository) Trim(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		result, err := r.db.Pool.Exec(ctx, `DELETE FROM audit_logs`)
		if err != nil {
			return 0, fmt.Errorf("failed to trim audit records: %w", err)
		}
		return result.RowsAffected(), nil
	}

	query := `
		DELETE FROM audit_logs
		WHERE id < (
			SELECT COALESCE(MIN(id), 0) FROM (
				SELECT id FROM audit_logs ORDER BY id DESC LIMIT $1
			) kept
		)
	`

	result, err := r.db.Pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to trim audit records: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *AuditLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return count, nil
}
