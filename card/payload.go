// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package card

import (
	"github.com/danielhkuo/ballot-tally/compressed"
	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/tally"
)

// TallyPayload is what a polls transition writes to the poll worker card.
type TallyPayload struct {
	MachineID           string                      `json:"machineId"`
	TimeSaved           int64                       `json:"timeSaved"`
	IsLiveMode          bool                        `json:"isLiveMode"`
	PrecinctSelection   election.PrecinctSelection  `json:"precinctSelection"`
	PollsTransition     string                      `json:"pollsTransition"`
	TotalBallotsScanned int                         `json:"totalBallotsScanned"`
	Tally               compressed.Tally            `json:"tally"`
	Metadata            compressed.Metadata         `json:"metadata"`
	TalliesByPrecinct   map[string]compressed.Tally `json:"talliesByPrecinct,omitempty"`
	BallotCounts        tally.BallotCounts          `json:"ballotCounts"`
}

// WithoutPrecinctTallies returns a copy with the per-precinct breakdown
// dropped, for cards too small to hold it.
func (p TallyPayload) WithoutPrecinctTallies() TallyPayload {
	p.TalliesByPrecinct = nil
	return p
}
