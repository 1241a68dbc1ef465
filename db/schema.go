// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Timestamps are RFC 3339 text and payloads JSON text so the same schema
// runs on sqlite and postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tally_snapshot (
    id TEXT PRIMARY KEY,
    machine_id TEXT NOT NULL,
    polls_transition TEXT NOT NULL,
    precinct_selection TEXT NOT NULL,
    ballot_count INTEGER NOT NULL CHECK (ballot_count >= 0),
    inputs_hash TEXT NOT NULL,
    computed_at TEXT NOT NULL,
    payload TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_tally_snapshot_computed_at ON tally_snapshot(computed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tally_snapshot_inputs_hash ON tally_snapshot(inputs_hash)`,
	`CREATE TABLE IF NOT EXISTS polls_state (
    machine_id TEXT PRIMARY KEY,
    state TEXT NOT NULL CHECK (state IN ('polls_closed_initial', 'polls_open', 'polls_paused', 'polls_closed_final')),
    precinct_selection TEXT NOT NULL,
    needs_confirmation INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
)`,
}
