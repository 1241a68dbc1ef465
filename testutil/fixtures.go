// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/danielhkuo/ballot-tally/election"
)

// GeneralElectionJSON is a two-district general election:
//
//   - president: 1 seat, write-ins allowed (district-1)
//   - city-council: 2 seats, no write-ins (district-1)
//   - measure-1: yes/no (district-2)
//
// Ballot style "1" covers district-1 in precincts 23 and 21; style "2"
// covers both districts in precinct 20.
const GeneralElectionJSON = `{
  "title": "General Election",
  "districts": [
    {"id": "district-1", "name": "City"},
    {"id": "district-2", "name": "County"}
  ],
  "precincts": [
    {"id": "precinct-23", "name": "Center Springfield"},
    {"id": "precinct-21", "name": "North Springfield"},
    {"id": "precinct-20", "name": "South Springfield"}
  ],
  "parties": [
    {"id": "party-1", "name": "Federalist", "abbrev": "F"},
    {"id": "party-2", "name": "People's", "abbrev": "P"}
  ],
  "ballotStyles": [
    {"id": "1", "precincts": ["precinct-23", "precinct-21"], "districts": ["district-1"]},
    {"id": "2", "precincts": ["precinct-20"], "districts": ["district-1", "district-2"]}
  ],
  "contests": [
    {
      "id": "president", "districtId": "district-1", "type": "candidate",
      "title": "President", "seats": 1, "allowWriteIns": true,
      "candidates": [
        {"id": "jackie-chan", "name": "Jackie Chan", "partyId": "party-1"},
        {"id": "neil-armstrong", "name": "Neil Armstrong", "partyId": "party-2"},
        {"id": "marie-curie", "name": "Marie Curie"}
      ]
    },
    {
      "id": "city-council", "districtId": "district-1", "type": "candidate",
      "title": "City Council", "seats": 2,
      "candidates": [
        {"id": "ada", "name": "Ada Lovelace"},
        {"id": "grace", "name": "Grace Hopper"},
        {"id": "alan", "name": "Alan Turing"},
        {"id": "linus", "name": "Linus Torvalds"}
      ]
    },
    {
      "id": "measure-1", "districtId": "district-2", "type": "yesno",
      "title": "Measure 1: Library Levy"
    }
  ]
}`

// PrimaryElectionJSON has one partisan governor contest per party plus a
// nonpartisan measure on its own ballot style.
const PrimaryElectionJSON = `{
  "title": "Primary Election",
  "districts": [{"id": "district-1", "name": "State"}],
  "precincts": [
    {"id": "precinct-1", "name": "Precinct 1"},
    {"id": "precinct-2", "name": "Precinct 2"}
  ],
  "parties": [
    {"id": "0", "name": "Mammal", "abbrev": "Ma"},
    {"id": "1", "name": "Fish", "abbrev": "F"}
  ],
  "ballotStyles": [
    {"id": "1M", "partyId": "0", "precincts": ["precinct-1", "precinct-2"], "districts": ["district-1"]},
    {"id": "2F", "partyId": "1", "precincts": ["precinct-1", "precinct-2"], "districts": ["district-1"]},
    {"id": "3N", "precincts": ["precinct-1", "precinct-2"], "districts": ["district-1"]}
  ],
  "contests": [
    {
      "id": "governor-mammal", "districtId": "district-1", "partyId": "0", "type": "candidate",
      "title": "Governor", "seats": 1, "allowWriteIns": true,
      "candidates": [
        {"id": "horse", "name": "Horse", "partyId": "0"},
        {"id": "otter", "name": "Otter", "partyId": "0"}
      ]
    },
    {
      "id": "governor-fish", "districtId": "district-1", "partyId": "1", "type": "candidate",
      "title": "Governor", "seats": 1,
      "candidates": [
        {"id": "salmon", "name": "Salmon", "partyId": "1"},
        {"id": "seahorse", "name": "Seahorse", "partyId": "1"}
      ]
    },
    {
      "id": "fishing-ban", "districtId": "district-1", "type": "yesno",
      "title": "Ballot Measure 3"
    }
  ]
}`

// GeneralElection parses GeneralElectionJSON.
func GeneralElection(t testing.TB) *election.Election {
	t.Helper()
	e, err := election.Parse([]byte(GeneralElectionJSON))
	if err != nil {
		t.Fatalf("Failed to parse general election fixture: %v", err)
	}
	return e
}

// PrimaryElection parses PrimaryElectionJSON.
func PrimaryElection(t testing.TB) *election.Election {
	t.Helper()
	e, err := election.Parse([]byte(PrimaryElectionJSON))
	if err != nil {
		t.Fatalf("Failed to parse primary election fixture: %v", err)
	}
	return e
}

// CVR describes one record line for CVRLines.
type CVR struct {
	BallotID      string
	BallotStyleID string
	PrecinctID    string
	ScannerID     string
	BallotType    string
	Votes         map[string][]string
}

// CVRLines renders records as a newline-delimited export.
func CVRLines(t testing.TB, records ...CVR) string {
	t.Helper()
	var b strings.Builder
	for _, r := range records {
		line := map[string]any{
			"_ballotId":      r.BallotID,
			"_ballotStyleId": r.BallotStyleID,
			"_precinctId":    r.PrecinctID,
			"_scannerId":     r.ScannerID,
			"_testBallot":    false,
		}
		if r.BallotType != "" {
			line["_ballotType"] = r.BallotType
		}
		for contestID, vote := range r.Votes {
			line[contestID] = vote
		}
		data, err := json.Marshal(line)
		if err != nil {
			t.Fatalf("Failed to marshal CVR: %v", err)
		}
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String()
}
