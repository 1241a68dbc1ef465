// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package compressed

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/tally"
)

var (
	ErrShapeMismatch = errors.New("compressed tally does not match election shape")
	ErrNegativeCount = errors.New("compressed tally has a negative count")
)

// Tally holds one row per election contest, in definition order. A candidate
// row is one count per candidate followed by the write-in count when the
// contest allows write-ins; a yes/no row is [yes, no].
type Tally [][]int

// Metadata holds one [undervotes, overvotes, ballots] row per contest.
type Metadata [][3]int

// Metadata row slots
const (
	MetaUndervotes = 0
	MetaOvervotes  = 1
	MetaBallots    = 2
)

// ShapeError describes where a compressed tally diverged from the shape the
// election definition requires. ContestID is empty when the number of rows
// is wrong.
type ShapeError struct {
	ContestID string
	Want      int
	Got       int
}

func (e *ShapeError) Error() string {
	if e.ContestID == "" {
		return fmt.Sprintf("%v: want %d contests, got %d", ErrShapeMismatch, e.Want, e.Got)
	}
	return fmt.Sprintf("%v: contest %q wants %d slots, got %d", ErrShapeMismatch, e.ContestID, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// Encode flattens t into rows ordered by the election's contests. Contests
// missing from t encode as zeros.
func Encode(e *election.Election, t tally.Tally) Tally {
	out := make(Tally, len(e.Contests))
	for i, contest := range e.Contests {
		ct, _ := t.Contest(contest.ID)
		row := make([]int, 0, contest.OptionCount())
		if contest.Type == election.ContestYesNo {
			row = append(row, ct.Count(election.ChoiceYes), ct.Count(election.ChoiceNo))
		} else {
			for _, cand := range contest.Candidates {
				row = append(row, ct.Count(cand.ID))
			}
			if contest.AllowWriteIns {
				row = append(row, ct.Count(election.WriteInID))
			}
		}
		out[i] = row
	}
	return out
}

// EncodeMetadata flattens each contest's ballot, overvote and undervote counts.
func EncodeMetadata(e *election.Election, t tally.Tally) Metadata {
	out := make(Metadata, len(e.Contests))
	for i, contest := range e.Contests {
		ct, _ := t.Contest(contest.ID)
		out[i][MetaUndervotes] = ct.Metadata.Undervotes
		out[i][MetaOvervotes] = ct.Metadata.Overvotes
		out[i][MetaBallots] = ct.Metadata.Ballots
	}
	return out
}

// Decode rebuilds a tally from its compressed rows. meta may be nil, in which
// case every contest's metadata is zero. Any row whose length differs from
// the contest's option count is an error; nothing is zero-filled.
// NumberOfBallots is not part of the encoding and is left at zero.
func Decode(e *election.Election, ct Tally, meta Metadata) (tally.Tally, error) {
	if len(ct) != len(e.Contests) {
		return tally.Tally{}, &ShapeError{Want: len(e.Contests), Got: len(ct)}
	}
	if meta != nil && len(meta) != len(e.Contests) {
		return tally.Tally{}, &ShapeError{Want: len(e.Contests), Got: len(meta)}
	}

	out := tally.Tally{Contests: make([]tally.ContestTally, 0, len(e.Contests))}
	for i, contest := range e.Contests {
		row := ct[i]
		if len(row) != contest.OptionCount() {
			return tally.Tally{}, &ShapeError{ContestID: contest.ID, Want: contest.OptionCount(), Got: len(row)}
		}
		for _, n := range row {
			if n < 0 {
				return tally.Tally{}, fmt.Errorf("contest %q: %w", contest.ID, ErrNegativeCount)
			}
		}

		options := make([]tally.ContestOptionTally, 0, len(row))
		if contest.Type == election.ContestYesNo {
			options = append(options,
				tally.ContestOptionTally{OptionID: election.ChoiceYes, Count: row[0]},
				tally.ContestOptionTally{OptionID: election.ChoiceNo, Count: row[1]},
			)
		} else {
			for j, cand := range contest.Candidates {
				options = append(options, tally.ContestOptionTally{OptionID: cand.ID, Count: row[j]})
			}
			if contest.AllowWriteIns {
				options = append(options, tally.ContestOptionTally{
					OptionID:  election.WriteInID,
					IsWriteIn: true,
					Count:     row[len(contest.Candidates)],
				})
			}
		}

		contestTally := tally.ContestTally{ContestID: contest.ID, Tallies: options}
		if meta != nil {
			m := meta[i]
			if m[MetaUndervotes] < 0 || m[MetaOvervotes] < 0 || m[MetaBallots] < 0 {
				return tally.Tally{}, fmt.Errorf("contest %q metadata: %w", contest.ID, ErrNegativeCount)
			}
			contestTally.Metadata = tally.ContestTallyMeta{
				Undervotes: m[MetaUndervotes],
				Overvotes:  m[MetaOvervotes],
				Ballots:    m[MetaBallots],
			}
		}
		out.Contests = append(out.Contests, contestTally)
	}
	return out, nil
}
