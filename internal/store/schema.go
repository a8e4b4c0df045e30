package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema for the three core tables. review_events is append-only: no UPDATE
// or DELETE statement for it exists anywhere in this package.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS cards (
		id         TEXT PRIMARY KEY,
		lesson     TEXT NOT NULL DEFAULT '',
		category   TEXT NOT NULL,
		sub_type   TEXT NOT NULL DEFAULT '',
		front      TEXT NOT NULL,
		back       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS review_states (
		card_id               TEXT PRIMARY KEY REFERENCES cards(id),
		state                 TEXT NOT NULL,
		ease_factor           REAL NOT NULL,
		interval_days         INTEGER NOT NULL DEFAULT 0,
		repetitions           INTEGER NOT NULL DEFAULT 0,
		lapses                INTEGER NOT NULL DEFAULT 0,
		interval_before_lapse INTEGER NOT NULL DEFAULT 0,
		due_at                TEXT NOT NULL,
		last_reviewed_at      TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS review_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		card_id     TEXT NOT NULL REFERENCES cards(id),
		category    TEXT NOT NULL,
		sub_type    TEXT NOT NULL DEFAULT '',
		quality     INTEGER NOT NULL,
		was_correct INTEGER NOT NULL,
		latency_ms  INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_states_due ON review_states(state, due_at)`,
	`CREATE INDEX IF NOT EXISTS idx_review_events_category ON review_events(category, id)`,
	`CREATE INDEX IF NOT EXISTS idx_review_events_sub_type ON review_events(sub_type, id)`,
	`CREATE INDEX IF NOT EXISTS idx_review_events_created ON review_events(created_at)`,
}

func migrate(db *sqlx.DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
