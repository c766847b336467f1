package repository

import (
	"context"
	"database/sql"
	"fmt"

	"planbook/internal/entity"
)

type ActivityLogRepository struct {
	db *sql.DB
}

func NewActivityLogRepository(db *sql.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Append(ctx context.Context, e *entity.ActivityEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, action, description, ip_address)
		VALUES ($1, $2, $3, $4)
	`, nullableID(e.UserID), e.Action, e.Description, e.IPAddress)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries with the actor's name resolved.
func (r *ActivityLogRepository) ListRecent(ctx context.Context, limit int) ([]entity.ActivityEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, COALESCE(a.user_id, 0),
			COALESCE(TRIM(u.first_name || ' ' || u.last_name), ''),
			a.action, a.description, a.ip_address, a.created_at
		FROM activity_logs a
		LEFT JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []entity.ActivityEntry
	for rows.Next() {
		var e entity.ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Action,
			&e.Description, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullableID(id int) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}
