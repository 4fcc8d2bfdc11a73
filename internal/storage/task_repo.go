package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"levelup/internal/engine"
)

type TaskRepo struct {
	db DBTX
}

func NewTaskRepo(db DBTX) *TaskRepo {
	return &TaskRepo{db: db}
}

// Upsert stores t, keeping the first created_at seen for its id.
func (r *TaskRepo) Upsert(ctx context.Context, userID string, t engine.TaskRecord) error {
	var completedAt *time.Time
	if t.CompletedAt != nil {
		v := t.CompletedAt.UTC()
		completedAt = &v
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, id, text, completed, priority, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			text = excluded.text,
			completed = excluded.completed,
			priority = excluded.priority,
			completed_at = excluded.completed_at
	`, userID, t.ID, t.Text, boolToInt(t.Completed), boolToInt(t.Priority), t.CreatedAt.UTC(), completedAt)
	if err != nil {
		return fmt.Errorf("task upsert: %w", err)
	}
	return nil
}

func (r *TaskRepo) Get(ctx context.Context, userID, id string) (*engine.TaskRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, text, completed, priority, created_at, completed_at
		FROM tasks
		WHERE user_id = ? AND id = ?
	`, userID, id)
	return scanTaskRow(row)
}

func (r *TaskRepo) ListByUser(ctx context.Context, userID string) ([]engine.TaskRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, completed, priority, created_at, completed_at
		FROM tasks
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("task list: %w", err)
	}
	defer rows.Close()

	var out []engine.TaskRecord
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task list rows: %w", err)
	}
	return out, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTaskRow(row scanner) (*engine.TaskRecord, error) {
	var (
		t           engine.TaskRecord
		completed   int
		priority    int
		completedAt sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Text, &completed, &priority, &t.CreatedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("task scan: %w", err)
	}
	t.Completed = completed != 0
	t.Priority = priority != 0
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	return &t, nil
}
