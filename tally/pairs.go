// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"cmp"
	"slices"

	"github.com/danielhkuo/ballot-tally/cvr"
	"github.com/danielhkuo/ballot-tally/election"
)

// OvervotePairTally counts ballots that overvoted a contest by marking both
// candidates. First precedes Second in definition order.
type OvervotePairTally struct {
	First  string `json:"first"`
	Second string `json:"second"`
	Tally  int    `json:"tally"`
}

type pairKey struct {
	lo, hi string
}

// newPairKey orders the ids so {A,B} and {B,A} share a key.
func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// ComputeOvervotePairTallies counts, per candidate contest, every unordered
// pair of definition candidates marked together on an overvoted ballot.
// The overvote test uses every mark on the ballot, but only definition
// candidates form pairs.
func ComputeOvervotePairTallies(e *election.Election, records []*cvr.CastVoteRecord) map[string][]OvervotePairTally {
	processed := make([]processedRecord, 0, len(records))
	for _, rec := range records {
		if votes, ok := ProcessCastVoteRecord(e, rec); ok {
			processed = append(processed, processedRecord{record: rec, votes: votes})
		}
	}
	return computeOvervotePairs(e, processed)
}

func computeOvervotePairs(e *election.Election, processed []processedRecord) map[string][]OvervotePairTally {
	out := make(map[string][]OvervotePairTally)
	for _, contest := range e.Contests {
		if contest.Type != election.ContestCandidate {
			continue
		}
		order := make(map[string]int, len(contest.Candidates))
		for i, cand := range contest.Candidates {
			order[cand.ID] = i
		}

		counts := make(map[pairKey]int)
		for _, p := range processed {
			vote, ok := p.votes[contest.ID]
			if !ok || len(vote) <= contest.Seats {
				continue
			}
			selected := distinctCandidates(vote, order)
			for i := 0; i < len(selected); i++ {
				for j := i + 1; j < len(selected); j++ {
					counts[newPairKey(selected[i], selected[j])]++
				}
			}
		}
		if len(counts) == 0 {
			continue
		}

		pairs := make([]OvervotePairTally, 0, len(counts))
		for key, n := range counts {
			first, second := key.lo, key.hi
			if order[second] < order[first] {
				first, second = second, first
			}
			pairs = append(pairs, OvervotePairTally{First: first, Second: second, Tally: n})
		}
		slices.SortFunc(pairs, func(a, b OvervotePairTally) int {
			if c := cmp.Compare(order[a.First], order[b.First]); c != 0 {
				return c
			}
			return cmp.Compare(order[a.Second], order[b.Second])
		})
		out[contest.ID] = pairs
	}
	return out
}

// distinctCandidates keeps definition candidates from vote, once each, in the
// order they were marked.
func distinctCandidates(vote cvr.Vote, order map[string]int) []string {
	seen := make(map[string]struct{}, len(vote))
	out := make([]string, 0, len(vote))
	for _, id := range vote {
		if _, ok := order[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
