// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db stores tally snapshots and the polls state.

# Opening

Open connects with the sqlite (modernc.org/sqlite) or postgres (lib/pq)
driver, pings, and creates the schema:

	conn, err := db.Open(ctx, db.SQLite, "file:precinct.db")

CreateSchema is safe to call multiple times - uses IF NOT EXISTS for all
tables and indexes. Queries are written with ? placeholders and rebound to
$n for postgres.

# Tables

  - tally_snapshot: one row per polls transition, with the card payload and a
    hash of the cast vote record ids it was computed from
  - polls_state: current polls lifecycle per machine

Snapshots are append-only; a polls transition never rewrites an earlier one.
*/
package db
