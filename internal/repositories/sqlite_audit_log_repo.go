package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BradenHooton/eduif/internal/database"
	"github.com/BradenHooton/eduif/internal/models"
)

// SQLiteAuditLogRepository is the activity trail on a SQLite file
type SQLiteAuditLogRepository struct {
	db *sql.DB
}

func NewSQLiteAuditLogRepository(db *sql.DB) *SQLiteAuditLogRepository {
	return &SQLiteAuditLogRepository{db: db}
}

func (r *SQLiteAuditLogRepository) Append(ctx context.Context, rec *models.AuditRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (timestamp, username, action, details, ip_address) VALUES (?, ?, ?, ?, ?)`,
		formatTime(rec.Timestamp), rec.Username, string(rec.Action), rec.Details, rec.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", database.MapSQLiteError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read audit record id: %w", err)
	}
	rec.ID = id

	return nil
}

func (r *SQLiteAuditLogRepository) Recent(ctx context.Context, limit int) ([]*models.AuditRecord, error) {
	// SQLite reads a negative LIMIT as unbounded
	if limit < 0 {
		limit = 0
	}

	query := `
		SELECT id, timestamp, username, action, details, ip_address
		FROM (
			SELECT id, timestamp, username, action, details, ip_address
			FROM audit_logs
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.AuditRecord, 0)
	for rows.Next() {
		var rec models.AuditRecord
		var ts, action string
		if err := rows.Scan(&rec.ID, &ts, &rec.Username, &action, &rec.Details, &rec.IPAddress); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		if rec.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		rec.Action = models.AuditAction(action)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return records, nil
}

func (r *SQLiteAuditLogRepository) Trim(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_logs WHERE id NOT IN (SELECT id FROM audit_logs ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to trim audit records: %w", err)
	}

	return result.RowsAffected()
}

func (r *SQLiteAuditLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return count, nil
}
