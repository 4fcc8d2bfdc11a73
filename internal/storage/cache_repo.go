package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type CacheRepo struct {
	db DBTX
}

func NewCacheRepo(db DBTX) *CacheRepo {
	return &CacheRepo{db: db}
}

func (r *CacheRepo) Get(ctx context.Context, userID string) (*CachedState, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, xp, level, plan, max_level, updated_at
		FROM session_cache
		WHERE user_id = ?
	`, userID)

	var c CachedState
	var plan sql.NullString
	var maxLevel sql.NullInt64
	var updated sql.NullTime
	if err := row.Scan(&c.UserID, &c.XP, &c.Level, &plan, &maxLevel, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	c.Plan = plan.String
	c.MaxLevel = int(maxLevel.Int64)
	if updated.Valid {
		c.UpdatedAt = updated.Time
	}
	return &c, nil
}

func (r *CacheRepo) Put(ctx context.Context, c CachedState) error {
	var plan sql.NullString
	var maxLevel sql.NullInt64
	if c.Plan != "" {
		plan = sql.NullString{String: c.Plan, Valid: true}
		maxLevel = sql.NullInt64{Int64: int64(c.MaxLevel), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_cache (user_id, xp, level, plan, max_level, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			xp = excluded.xp,
			level = excluded.level,
			plan = COALESCE(excluded.plan, session_cache.plan),
			max_level = COALESCE(excluded.max_level, session_cache.max_level),
			updated_at = excluded.updated_at
	`, c.UserID, c.XP, c.Level, plan, maxLevel, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}
