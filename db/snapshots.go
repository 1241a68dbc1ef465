// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Snapshot is one stored tally snapshot. Payload is the JSON card payload.
type Snapshot struct {
	ID                string    `json:"id"`
	MachineID         string    `json:"machineId"`
	PollsTransition   string    `json:"pollsTransition"`
	PrecinctSelection string    `json:"precinctSelection"`
	BallotCount       int       `json:"ballotCount"`
	InputsHash        string    `json:"inputsHash"`
	ComputedAt        time.Time `json:"computedAt"`
	Payload           []byte    `json:"-"`
}

// SnapshotStore keeps every tally snapshot taken at a polls transition.
type SnapshotStore struct {
	db     *sql.DB
	dbType string
	logger *zap.Logger
}

func NewSnapshotStore(db *sql.DB, dbType string, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{db: db, dbType: dbType, logger: logger.Named("snapshots")}
}

// Save stores s, assigning an id and timestamp when they are empty.
func (s *SnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.ComputedAt.IsZero() {
		snap.ComputedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, rebind(s.dbType, `
		INSERT INTO tally_snapshot (id, machine_id, polls_transition, precinct_selection, ballot_count, inputs_hash, computed_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), snap.ID, snap.MachineID, snap.PollsTransition, snap.PrecinctSelection, snap.BallotCount,
		snap.InputsHash, snap.ComputedAt.UTC().Format(timeLayout), string(snap.Payload))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	s.logger.Info("tally snapshot stored",
		zap.String("snapshot_id", snap.ID),
		zap.String("transition", snap.PollsTransition),
		zap.Int("ballots", snap.BallotCount))
	return nil
}

// Get returns a snapshot by id.
func (s *SnapshotStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.dbType, selectSnapshot+` WHERE id = ?`), id)
	return scanSnapshot(row)
}

// Latest returns the most recent snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx, selectSnapshot+` ORDER BY computed_at DESC LIMIT 1`)
	return scanSnapshot(row)
}

// List returns snapshots newest first, without payloads.
func (s *SnapshotStore) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, rebind(s.dbType, selectSnapshot+` ORDER BY computed_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snap.Payload = nil
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	return out, nil
}

const selectSnapshot = `
	SELECT id, machine_id, polls_transition, precinct_selection, ballot_count, inputs_hash, computed_at, payload
	FROM tally_snapshot`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var computedAt, payload string
	err := row.Scan(&snap.ID, &snap.MachineID, &snap.PollsTransition, &snap.PrecinctSelection,
		&snap.BallotCount, &snap.InputsHash, &computedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	snap.ComputedAt, err = time.Parse(timeLayout, computedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot time: %w", err)
	}
	snap.Payload = []byte(payload)
	return &snap, nil
}
