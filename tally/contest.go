// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"github.com/danielhkuo/ballot-tally/cvr"
	"github.com/danielhkuo/ballot-tally/election"
)

// ContestOptionTally is the count for one option: a candidate, the write-in
// slot, or a yes/no choice.
type ContestOptionTally struct {
	OptionID  string `json:"optionId"`
	IsWriteIn bool   `json:"isWriteIn,omitempty"`
	Count     int    `json:"count"`
}

// ContestTallyMeta reports how many ballots included the contest and how many
// of those were overvoted or left blank.
type ContestTallyMeta struct {
	Ballots    int `json:"ballots"`
	Overvotes  int `json:"overvotes"`
	Undervotes int `json:"undervotes"`
}

// ContestTally holds option counts in definition order: candidates as listed
// then write-in when allowed, or yes then no.
type ContestTally struct {
	ContestID string               `json:"contestId"`
	Tallies   []ContestOptionTally `json:"tallies"`
	Metadata  ContestTallyMeta     `json:"metadata"`
}

// Count returns the tally for an option, or 0 if the contest has no such option.
func (ct ContestTally) Count(optionID string) int {
	for _, t := range ct.Tallies {
		if t.OptionID == optionID {
			return t.Count
		}
	}
	return 0
}

// CalculateContestTally counts votes for a single contest. Overvotes and
// undervotes increment nothing; they show up only in ContestMeta. Candidate
// ids missing from the definition go to the write-in slot, or nowhere if the
// contest does not allow write-ins.
func CalculateContestTally(contest election.Contest, votes []cvr.Vote) []ContestOptionTally {
	if contest.Type == election.ContestYesNo {
		return yesNoTally(votes)
	}

	tallies := make([]ContestOptionTally, 0, contest.OptionCount())
	index := make(map[string]int, len(contest.Candidates))
	for i, cand := range contest.Candidates {
		index[cand.ID] = i
		tallies = append(tallies, ContestOptionTally{OptionID: cand.ID})
	}
	writeIn := -1
	if contest.AllowWriteIns {
		writeIn = len(tallies)
		tallies = append(tallies, ContestOptionTally{OptionID: election.WriteInID, IsWriteIn: true})
	}

	maxSelectable := contest.MaxSelectable()
	for _, vote := range votes {
		if len(vote) == 0 || len(vote) > maxSelectable {
			continue
		}
		for _, id := range vote {
			if i, ok := index[id]; ok {
				tallies[i].Count++
			} else if writeIn >= 0 {
				tallies[writeIn].Count++
			}
		}
	}
	return tallies
}

func yesNoTally(votes []cvr.Vote) []ContestOptionTally {
	yes := ContestOptionTally{OptionID: election.ChoiceYes}
	no := ContestOptionTally{OptionID: election.ChoiceNo}
	for _, vote := range votes {
		if len(vote) != 1 {
			continue
		}
		switch vote[0] {
		case election.ChoiceYes:
			yes.Count++
		case election.ChoiceNo:
			no.Count++
		}
	}
	return []ContestOptionTally{yes, no}
}

// ContestMeta counts ballots, overvotes and undervotes for a contest. votes
// holds one entry per ballot that included the contest. The overvote and
// undervote tests match CalculateContestTally but are computed separately so
// the excluded volume is still reported.
func ContestMeta(contest election.Contest, votes []cvr.Vote) ContestTallyMeta {
	meta := ContestTallyMeta{Ballots: len(votes)}
	maxSelectable := contest.MaxSelectable()
	for _, vote := range votes {
		switch {
		case len(vote) == 0:
			meta.Undervotes++
		case len(vote) > maxSelectable:
			meta.Overvotes++
		}
	}
	return meta
}
