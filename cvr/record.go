// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cvr

// Ballot types
const (
	BallotTypeStandard    = "standard"
	BallotTypeAbsentee    = "absentee"
	BallotTypeProvisional = "provisional"
)

// Vote is a contest selection: candidate ids, or a single "yes"/"no".
type Vote []string

// VotesDict maps contest id to the vote recorded for it. A missing key means
// the contest was not on the sheet; an empty Vote is an undervote.
type VotesDict map[string]Vote

type Locale struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

// CastVoteRecord is one scanned sheet's selections plus provenance. Records
// are created by the scanning pipeline and never mutated afterwards.
type CastVoteRecord struct {
	BallotID      string    `json:"_ballotId"`
	BallotStyleID string    `json:"_ballotStyleId"`
	PrecinctID    string    `json:"_precinctId"`
	ScannerID     string    `json:"_scannerId"`
	TestBallot    bool      `json:"_testBallot"`
	BallotType    string    `json:"_ballotType,omitempty"`
	PageNumber    *int      `json:"_pageNumber,omitempty"`
	Locale        *Locale   `json:"_locale,omitempty"`
	Votes         VotesDict `json:"-"`
}

// IsAbsentee reports whether the record counts toward the absentee category.
func (r *CastVoteRecord) IsAbsentee() bool {
	return r.BallotType == BallotTypeAbsentee
}
