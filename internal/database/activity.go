package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crmdash/internal/models"
)

// Record appends one entry to the audit trail.
func (db *DB) Record(ctx context.Context, a *models.Activity) error {
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now()
	}
	res, err := db.db.ExecContext(ctx, `
        INSERT INTO activity (occurred_at, username, action, entity, entity_id, detail)
        VALUES (?, ?, ?, ?, ?, ?)`,
		a.OccurredAt.UTC(), a.Username, a.Action, a.Entity, a.EntityID, nullString(a.Detail))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		a.ID = id
	}
	return nil
}

// Recent returns the newest entries first.
func (db *DB) Recent(ctx context.Context, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = models.RecentActivityLimit
	}
	rows, err := db.db.QueryContext(ctx, `
        SELECT id, occurred_at, username, action, entity, entity_id, detail
        FROM activity
        ORDER BY occurred_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []*models.Activity
	for rows.Next() {
		var (
			a      models.Activity
			detail sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.OccurredAt, &a.Username, &a.Action, &a.Entity, &a.EntityID, &detail); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Detail = detail.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

// PruneBefore deletes entries older than cutoff.
func (db *DB) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.db.ExecContext(ctx, `DELETE FROM activity WHERE occurred_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune activity: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
