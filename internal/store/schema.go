package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// Timestamps are stored as Unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id    TEXT PRIMARY KEY,
		sequence      INTEGER NOT NULL,
		username      TEXT NOT NULL DEFAULT '',
		contest       TEXT NOT NULL DEFAULT '',
		year          INTEGER NOT NULL DEFAULT 0,
		mode          TEXT NOT NULL DEFAULT '',
		score         INTEGER NOT NULL,
		attempted     INTEGER NOT NULL,
		total_time_ms INTEGER NOT NULL,
		completed_at  INTEGER NOT NULL,
		payload       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_username_completed_at
		ON sessions (username, completed_at)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		session_id    TEXT NOT NULL REFERENCES sessions (session_id) ON DELETE CASCADE,
		ordinal       INTEGER NOT NULL,
		problem_id    TEXT NOT NULL,
		choice        TEXT NOT NULL,
		correct       INTEGER NOT NULL,
		time_spent_ms INTEGER NOT NULL,
		answered_at   INTEGER NOT NULL,
		difficulty    TEXT NOT NULL DEFAULT '',
		topics        TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (session_id, ordinal)
	)`,
	`CREATE TABLE IF NOT EXISTS user_stats (
		username   TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
}

// migrate creates any missing tables and indexes.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	for _, stmt := range schema {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}
