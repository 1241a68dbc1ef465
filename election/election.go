// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "errors"

// Contest types
const (
	ContestCandidate = "candidate"
	ContestYesNo     = "yesno"
)

// Yes/no choices as they appear in a cast vote record
const (
	ChoiceYes = "yes"
	ChoiceNo  = "no"
)

// WriteInID is the candidate id every write-in selection is folded into.
const WriteInID = "__write-in"

// WriteInCandidate is the synthetic candidate used for write-in tallies.
var WriteInCandidate = Candidate{ID: WriteInID, Name: "Write-In", IsWriteIn: true}

var (
	ErrUnknownBallotStyle = errors.New("unknown ballot style")
	ErrUnknownPrecinct    = errors.New("unknown precinct")
	ErrUnknownContest     = errors.New("unknown contest")
	ErrUnknownParty       = errors.New("unknown party")
	ErrInvalidDefinition  = errors.New("invalid election definition")
)

type District struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Precinct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Party struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Abbrev string `json:"abbrev"`
}

type Candidate struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PartyID   string `json:"partyId,omitempty"`
	IsWriteIn bool   `json:"isWriteIn,omitempty"`
}

type Contest struct {
	ID            string      `json:"id"`
	DistrictID    string      `json:"districtId"`
	PartyID       string      `json:"partyId,omitempty"`
	Type          string      `json:"type"`
	Title         string      `json:"title"`
	Seats         int         `json:"seats,omitempty"`
	AllowWriteIns bool        `json:"allowWriteIns,omitempty"`
	Candidates    []Candidate `json:"candidates,omitempty"`
}

// MaxSelectable is the number of selections a voter may make in the contest.
func (c Contest) MaxSelectable() int {
	if c.Type == ContestYesNo {
		return 1
	}
	return c.Seats
}

// OptionCount is the number of tally slots the contest occupies: one per
// candidate plus a write-in slot, or two for yes/no.
func (c Contest) OptionCount() int {
	if c.Type == ContestYesNo {
		return 2
	}
	if c.AllowWriteIns {
		return len(c.Candidates) + 1
	}
	return len(c.Candidates)
}

// HasCandidate reports whether id is a definition-listed candidate.
func (c Contest) HasCandidate(id string) bool {
	for _, cand := range c.Candidates {
		if cand.ID == id {
			return true
		}
	}
	return false
}

type BallotStyle struct {
	ID        string   `json:"id"`
	PartyID   string   `json:"partyId,omitempty"`
	Precincts []string `json:"precincts"`
	Districts []string `json:"districts"`
}

// HasPrecinct reports whether the ballot style is used in the precinct.
func (b BallotStyle) HasPrecinct(precinctID string) bool {
	for _, id := range b.Precincts {
		if id == precinctID {
			return true
		}
	}
	return false
}

// Election is an immutable election definition. Construct it with Load or
// LoadFile so the lookup indexes are built.
type Election struct {
	Title        string        `json:"title"`
	Districts    []District    `json:"districts"`
	Precincts    []Precinct    `json:"precincts"`
	Parties      []Party       `json:"parties"`
	BallotStyles []BallotStyle `json:"ballotStyles"`
	Contests     []Contest     `json:"contests"`

	hash          string
	contests      map[string]int
	ballotStyles  map[string]int
	precincts     map[string]int
	parties       map[string]int
	styleContests map[styleContest]struct{}
}

type styleContest struct {
	ballotStyleID string
	contestID     string
}

// Hash is the hex sha256 of the definition bytes the election was loaded from.
func (e *Election) Hash() string {
	return e.hash
}

func (e *Election) Contest(id string) (Contest, bool) {
	i, ok := e.contests[id]
	if !ok {
		return Contest{}, false
	}
	return e.Contests[i], true
}

func (e *Election) BallotStyle(id string) (BallotStyle, bool) {
	i, ok := e.ballotStyles[id]
	if !ok {
		return BallotStyle{}, false
	}
	return e.BallotStyles[i], true
}

func (e *Election) Precinct(id string) (Precinct, bool) {
	i, ok := e.precincts[id]
	if !ok {
		return Precinct{}, false
	}
	return e.Precincts[i], true
}

func (e *Election) Party(id string) (Party, bool) {
	i, ok := e.parties[id]
	if !ok {
		return Party{}, false
	}
	return e.Parties[i], true
}

// ContestValidForBallotStyle is an O(1) membership check against the
// ballot style × contest set computed at load time.
func (e *Election) ContestValidForBallotStyle(ballotStyleID, contestID string) bool {
	_, ok := e.styleContests[styleContest{ballotStyleID, contestID}]
	return ok
}

// ContestsForBallotStyle returns the contests presented on a ballot style in
// definition order.
func (e *Election) ContestsForBallotStyle(ballotStyleID string) ([]Contest, error) {
	style, ok := e.BallotStyle(ballotStyleID)
	if !ok {
		return nil, ErrUnknownBallotStyle
	}
	return contestsForStyle(e.Contests, style), nil
}

// PartyBallotStyles returns the ballot styles assigned to a party.
func (e *Election) PartyBallotStyles(partyID string) []BallotStyle {
	var styles []BallotStyle
	for _, s := range e.BallotStyles {
		if s.PartyID == partyID {
			styles = append(styles, s)
		}
	}
	return styles
}

// PartyIDs lists the parties that have at least one ballot style, in
// definition order. Used to break tallies out for primaries.
func (e *Election) PartyIDs() []string {
	var ids []string
	for _, p := range e.Parties {
		if len(e.PartyBallotStyles(p.ID)) > 0 {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func contestsForStyle(contests []Contest, style BallotStyle) []Contest {
	districts := make(map[string]struct{}, len(style.Districts))
	for _, d := range style.Districts {
		districts[d] = struct{}{}
	}

	var out []Contest
	for _, c := range contests {
		if _, ok := districts[c.DistrictID]; !ok {
			continue
		}
		if c.PartyID != style.PartyID {
			continue
		}
		out = append(out, c)
	}
	return out
}
