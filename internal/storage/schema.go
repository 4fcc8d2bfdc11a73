package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			user_id TEXT PRIMARY KEY,
			xp INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			plan TEXT NOT NULL DEFAULT 'free',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		// Ledger of every XP write, including admin edits.
		`CREATE TABLE IF NOT EXISTS xp_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			requested INTEGER NOT NULL,
			applied INTEGER NOT NULL,
			reason TEXT NOT NULL,
			task_id TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(user_id) REFERENCES players(user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			text TEXT NOT NULL,
			completed INTEGER DEFAULT 0,
			priority INTEGER DEFAULT 0,
			created_at DATETIME NOT NULL,
			completed_at DATETIME,
			PRIMARY KEY (user_id, id)
		);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			user_id TEXT NOT NULL,
			achievement_id TEXT NOT NULL,
			unlocked_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		);`,
		// Last state a client session saw; never authoritative.
		`CREATE TABLE IF NOT EXISTS session_cache (
			user_id TEXT PRIMARY KEY,
			xp INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			plan TEXT,
			max_level INTEGER,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_xp_events_user_created ON xp_events(user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks(user_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Columns added after the first release (ignore if already present).
	alterStmts := []string{
		`ALTER TABLE players ADD COLUMN plan TEXT NOT NULL DEFAULT 'free';`,
	}
	for _, stmt := range alterStmts {
		_, err := db.ExecContext(ctx, stmt)
		if err != nil && !strings.Contains(err.Error(), "duplicate column") {
			return fmt.Errorf("migrate alter: %w", err)
		}
	}

	return nil
}
