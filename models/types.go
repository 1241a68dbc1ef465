// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"time"

	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/polls"
	"github.com/danielhkuo/ballot-tally/scanner"
)

// Request types

type SetPrecinctRequest struct {
	Kind       string `json:"kind"`
	PrecinctID string `json:"precinct_id,omitempty"`
}

// Selection converts the request. An empty kind with a precinct id means
// that single precinct.
func (r SetPrecinctRequest) Selection() election.PrecinctSelection {
	if r.Kind == "" && r.PrecinctID != "" {
		return election.SinglePrecinct(r.PrecinctID)
	}
	return election.PrecinctSelection{Kind: r.Kind, PrecinctID: r.PrecinctID}
}

// Response types

type StatusResponse struct {
	Ballot  scanner.Snapshot     `json:"ballot"`
	Polls   polls.Status         `json:"polls"`
	Battery *scanner.BatteryInfo `json:"battery,omitempty"`
}

type TransitionResponse struct {
	State       polls.State `json:"state"`
	Transition  string      `json:"transition"`
	BallotCount int         `json:"ballot_count"`
	InputsHash  string      `json:"inputs_hash"`
	SnapshotID  string      `json:"snapshot_id,omitempty"`
	Problems    int         `json:"problems"`
}

type SnapshotSummary struct {
	ID              string    `json:"id"`
	PollsTransition string    `json:"polls_transition"`
	BallotCount     int       `json:"ballot_count"`
	InputsHash      string    `json:"inputs_hash"`
	ComputedAt      time.Time `json:"computed_at"`
}

type SnapshotResponse struct {
	SnapshotSummary
	Payload json.RawMessage `json:"payload"`
}

type QRResponse struct {
	SnapshotID string `json:"snapshot_id"`
	Data       string `json:"data"`
}

type BallotResponse struct {
	State          scanner.BallotState `json:"state"`
	BallotsCounted int                 `json:"ballots_counted"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
