// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"slices"

	"github.com/danielhkuo/ballot-tally/cvr"
	"github.com/danielhkuo/ballot-tally/election"
)

// AllPrecincts stands in for a precinct id in ballot count keys that cover
// every precinct.
const AllPrecincts = "__ALL_PRECINCTS"

// Ballot count categories
const (
	CategoryPrecinct = 0
	CategoryAbsentee = 1
)

// Tally is every contest's counts for one grouping (a precinct, a scanner, or
// the whole election), in election contest order.
type Tally struct {
	NumberOfBallots int            `json:"numberOfBallots"`
	Contests        []ContestTally `json:"contests"`
}

// Contest returns the tally for a contest id.
func (t Tally) Contest(id string) (ContestTally, bool) {
	for _, ct := range t.Contests {
		if ct.ContestID == id {
			return ct, true
		}
	}
	return ContestTally{}, false
}

// BallotCounts maps a BallotCountKey to [precinct, absentee] ballot counts.
type BallotCounts map[string][2]int

// BallotCountKey builds the "{partyId},{precinctId}" key used on the card.
// An empty party id covers ballots of every party.
func BallotCountKey(partyID, precinctID string) string {
	return partyID + "," + precinctID
}

// FullElectionTally is the overall tally with its precinct, scanner and party
// breakdowns. Every precinct in the definition has an entry in ByPrecinct,
// even with no ballots.
type FullElectionTally struct {
	Overall       Tally                          `json:"overall"`
	ByPrecinct    map[string]Tally               `json:"byPrecinct"`
	ByScanner     map[string]Tally               `json:"byScanner"`
	ByParty       map[string]Tally               `json:"byParty,omitempty"`
	OvervotePairs map[string][]OvervotePairTally `json:"overvotePairs,omitempty"`
	BallotCounts  BallotCounts                   `json:"ballotCounts"`
}

// ScannerIDs returns the scanner ids with ballots, sorted.
func (f *FullElectionTally) ScannerIDs() []string {
	ids := make([]string, 0, len(f.ByScanner))
	for id := range f.ByScanner {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ProcessCastVoteRecord keeps only what can be tallied from a record. It
// returns false when the record's precinct does not use its ballot style (or
// the ballot style is unknown). Contests not on the ballot style are dropped.
// Candidate selections are normalized without changing their length: any id
// outside the definition becomes the write-in candidate when the contest
// allows write-ins, and is otherwise kept as is so it still counts toward an
// overvote.
func ProcessCastVoteRecord(e *election.Election, rec *cvr.CastVoteRecord) (cvr.VotesDict, bool) {
	style, ok := e.BallotStyle(rec.BallotStyleID)
	if !ok || !style.HasPrecinct(rec.PrecinctID) {
		return nil, false
	}
	contests, err := e.ContestsForBallotStyle(style.ID)
	if err != nil {
		return nil, false
	}

	votes := make(cvr.VotesDict, len(contests))
	for _, contest := range contests {
		vote, present := rec.Votes[contest.ID]
		if !present {
			continue
		}
		if contest.Type == election.ContestYesNo {
			votes[contest.ID] = slices.Clone(vote)
			continue
		}
		normalized := make(cvr.Vote, 0, len(vote))
		for _, id := range vote {
			if contest.AllowWriteIns && !contest.HasCandidate(id) {
				id = election.WriteInID
			}
			normalized = append(normalized, id)
		}
		votes[contest.ID] = normalized
	}
	return votes, true
}

// TallyVotesByContest tallies every contest of the election over a set of
// processed ballots.
func TallyVotesByContest(e *election.Election, ballots []cvr.VotesDict) Tally {
	t := Tally{
		NumberOfBallots: len(ballots),
		Contests:        make([]ContestTally, 0, len(e.Contests)),
	}
	for _, contest := range e.Contests {
		var votes []cvr.Vote
		for _, b := range ballots {
			if vote, ok := b[contest.ID]; ok {
				votes = append(votes, vote)
			}
		}
		t.Contests = append(t.Contests, ContestTally{
			ContestID: contest.ID,
			Tallies:   CalculateContestTally(contest, votes),
			Metadata:  ContestMeta(contest, votes),
		})
	}
	return t
}

type processedRecord struct {
	record *cvr.CastVoteRecord
	votes  cvr.VotesDict
	party  string
}

// ComputeFullElectionTally tallies records overall and broken down by
// precinct, scanner and party. Records rejected by ProcessCastVoteRecord are
// skipped entirely.
func ComputeFullElectionTally(e *election.Election, records []*cvr.CastVoteRecord) *FullElectionTally {
	processed := make([]processedRecord, 0, len(records))
	for _, rec := range records {
		votes, ok := ProcessCastVoteRecord(e, rec)
		if !ok {
			continue
		}
		style, _ := e.BallotStyle(rec.BallotStyleID)
		processed = append(processed, processedRecord{record: rec, votes: votes, party: style.PartyID})
	}

	all := make([]cvr.VotesDict, 0, len(processed))
	byPrecinct := make(map[string][]cvr.VotesDict)
	byScanner := make(map[string][]cvr.VotesDict)
	for _, p := range processed {
		all = append(all, p.votes)
		byPrecinct[p.record.PrecinctID] = append(byPrecinct[p.record.PrecinctID], p.votes)
		byScanner[p.record.ScannerID] = append(byScanner[p.record.ScannerID], p.votes)
	}

	full := &FullElectionTally{
		Overall:       TallyVotesByContest(e, all),
		ByPrecinct:    make(map[string]Tally, len(e.Precincts)),
		ByScanner:     make(map[string]Tally, len(byScanner)),
		OvervotePairs: computeOvervotePairs(e, processed),
		BallotCounts:  countBallots(processed),
	}
	for _, p := range e.Precincts {
		full.ByPrecinct[p.ID] = TallyVotesByContest(e, byPrecinct[p.ID])
	}
	for scannerID, ballots := range byScanner {
		full.ByScanner[scannerID] = TallyVotesByContest(e, ballots)
	}

	if parties := e.PartyIDs(); len(parties) > 0 {
		full.ByParty = make(map[string]Tally, len(parties))
		for _, partyID := range parties {
			full.ByParty[partyID] = FilterTallyByParty(e, full.Overall, partyID)
		}
	}
	return full
}

func countBallots(processed []processedRecord) BallotCounts {
	counts := BallotCounts{}
	add := func(key string, category int) {
		c := counts[key]
		c[category]++
		counts[key] = c
	}
	for _, p := range processed {
		category := CategoryPrecinct
		if p.record.IsAbsentee() {
			category = CategoryAbsentee
		}
		add(BallotCountKey("", p.record.PrecinctID), category)
		add(BallotCountKey("", AllPrecincts), category)
		if p.party != "" {
			add(BallotCountKey(p.party, p.record.PrecinctID), category)
			add(BallotCountKey(p.party, AllPrecincts), category)
		}
	}
	return counts
}

// FilterTallyByParty keeps the contests that belong to a party: those in a
// district on one of the party's ballot styles whose party id matches. It
// never recounts; NumberOfBallots is carried over unchanged.
func FilterTallyByParty(e *election.Election, t Tally, partyID string) Tally {
	districts := make(map[string]struct{})
	for _, style := range e.PartyBallotStyles(partyID) {
		for _, d := range style.Districts {
			districts[d] = struct{}{}
		}
	}

	filtered := Tally{NumberOfBallots: t.NumberOfBallots}
	for _, ct := range t.Contests {
		contest, ok := e.Contest(ct.ContestID)
		if !ok || contest.PartyID != partyID {
			continue
		}
		if _, ok := districts[contest.DistrictID]; !ok {
			continue
		}
		filtered.Contests = append(filtered.Contests, ct)
	}
	return filtered
}
