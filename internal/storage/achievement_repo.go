package storage

import (
	"context"
	"fmt"
	"time"
)

type AchievementRepo struct {
	db DBTX
}

func NewAchievementRepo(db DBTX) *AchievementRepo {
	return &AchievementRepo{db: db}
}

// MarkUnlocked records an unlock. The first unlock time wins.
func (r *AchievementRepo) MarkUnlocked(ctx context.Context, userID, achievementID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, achievement_id) DO NOTHING
	`, userID, achievementID, at.UTC())
	if err != nil {
		return fmt.Errorf("achievement mark unlocked: %w", err)
	}
	return nil
}

// ListUnlocked returns unlock times keyed by achievement id.
func (r *AchievementRepo) ListUnlocked(ctx context.Context, userID string) (map[string]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT achievement_id, unlocked_at FROM achievements WHERE user_id = ? ORDER BY achievement_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("achievement list: %w", err)
	}
	defer rows.Close()

	out := map[string]time.Time{}
	for rows.Next() {
		var id string
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("achievement scan: %w", err)
		}
		out[id] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("achievement rows: %w", err)
	}
	return out, nil
}
