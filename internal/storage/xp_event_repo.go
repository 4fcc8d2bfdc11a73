package storage

import (
	"context"
	"fmt"
	"time"
)

type XPEventRepo struct {
	db DBTX
}

func NewXPEventRepo(db DBTX) *XPEventRepo {
	return &XPEventRepo{db: db}
}

func (r *XPEventRepo) Insert(ctx context.Context, e XPEvent) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO xp_events (user_id, requested, applied, reason, task_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.UserID, e.Requested, e.Applied, e.Reason, e.TaskID, e.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("xp event insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("xp event last insert id: %w", err)
	}
	return id, nil
}

// ListSince returns a user's events at or after since, oldest first.
func (r *XPEventRepo) ListSince(ctx context.Context, userID string, since time.Time) ([]XPEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, requested, applied, reason, task_id, created_at
		FROM xp_events
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at ASC, id ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("xp event list: %w", err)
	}
	defer rows.Close()

	var out []XPEvent
	for rows.Next() {
		var e XPEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Requested, &e.Applied, &e.Reason, &e.TaskID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("xp event scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("xp event rows: %w", err)
	}
	return out, nil
}

func (r *XPEventRepo) SumSince(ctx context.Context, userID string, since time.Time) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(applied), 0)
		FROM xp_events
		WHERE user_id = ? AND created_at >= ?
	`, userID, since)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("xp event sum: %w", err)
	}
	return n, nil
}
