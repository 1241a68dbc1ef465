// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNoPollsState = errors.New("no polls state stored")

// PollsState is the persisted polls lifecycle for one machine, so a restart
// resumes where it left off.
type PollsState struct {
	MachineID         string
	State             string
	PrecinctSelection string
	NeedsConfirmation bool
	UpdatedAt         time.Time
}

type PollsStateStore struct {
	db     *sql.DB
	dbType string
}

func NewPollsStateStore(db *sql.DB, dbType string) *PollsStateStore {
	return &PollsStateStore{db: db, dbType: dbType}
}

// Save upserts the state for st.MachineID.
func (s *PollsStateStore) Save(ctx context.Context, st PollsState) error {
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}
	confirm := 0
	if st.NeedsConfirmation {
		confirm = 1
	}
	_, err := s.db.ExecContext(ctx, rebind(s.dbType, `
		INSERT INTO polls_state (machine_id, state, precinct_selection, needs_confirmation, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (machine_id) DO UPDATE SET
			state = excluded.state,
			precinct_selection = excluded.precinct_selection,
			needs_confirmation = excluded.needs_confirmation,
			updated_at = excluded.updated_at
	`), st.MachineID, st.State, st.PrecinctSelection, confirm, st.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save polls state: %w", err)
	}
	return nil
}

// Load returns the stored state, or ErrNoPollsState.
func (s *PollsStateStore) Load(ctx context.Context, machineID string) (PollsState, error) {
	var st PollsState
	var confirm int
	var updatedAt string
	err := s.db.QueryRowContext(ctx, rebind(s.dbType, `
		SELECT machine_id, state, precinct_selection, needs_confirmation, updated_at
		FROM polls_state WHERE machine_id = ?
	`), machineID).Scan(&st.MachineID, &st.State, &st.PrecinctSelection, &confirm, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrNoPollsState
	}
	if err != nil {
		return st, fmt.Errorf("failed to load polls state: %w", err)
	}
	st.NeedsConfirmation = confirm != 0
	st.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return st, fmt.Errorf("failed to parse polls state time: %w", err)
	}
	return st, nil
}
