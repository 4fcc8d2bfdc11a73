package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PlayerRepo struct {
	db DBTX
}

func NewPlayerRepo(db DBTX) *PlayerRepo {
	return &PlayerRepo{db: db}
}

func (r *PlayerRepo) Get(ctx context.Context, userID string) (*Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT user_id, xp, level, plan, updated_at FROM players WHERE user_id = ?`, userID)

	var p Player
	var updated sql.NullTime
	if err := row.Scan(&p.UserID, &p.XP, &p.Level, &p.Plan, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("player get: %w", err)
	}
	if updated.Valid {
		p.UpdatedAt = updated.Time
	}
	return &p, nil
}

func (r *PlayerRepo) GetOrCreate(ctx context.Context, userID string) (*Player, error) {
	p, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	if _, err := r.db.ExecContext(ctx, `INSERT INTO players (user_id, updated_at) VALUES (?, ?)`, userID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("player insert: %w", err)
	}
	return r.Get(ctx, userID)
}

func (r *PlayerRepo) UpdateXP(ctx context.Context, userID string, xp int, level int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE players
		SET xp = ?, level = ?, updated_at = ?
		WHERE user_id = ?
	`, xp, level, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("player update xp: %w", err)
	}
	return nil
}

func (r *PlayerRepo) UpdatePlan(ctx context.Context, userID string, plan string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE players SET plan = ?, updated_at = ? WHERE user_id = ?`, plan, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("player update plan: %w", err)
	}
	return nil
}

func (r *PlayerRepo) ListAll(ctx context.Context) ([]Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, xp, level, plan, updated_at FROM players ORDER BY user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("player list: %w", err)
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		var p Player
		var updated sql.NullTime
		if err := rows.Scan(&p.UserID, &p.XP, &p.Level, &p.Plan, &updated); err != nil {
			return nil, fmt.Errorf("player scan: %w", err)
		}
		if updated.Valid {
			p.UpdatedAt = updated.Time
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("player rows: %w", err)
	}
	return out, nil
}
