// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadFile reads and validates an election definition from disk.
func LoadFile(path string) (*Election, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read election definition: %w", err)
	}
	return Parse(data)
}

// Load reads and validates an election definition.
func Load(r io.Reader) (*Election, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read election definition: %w", err)
	}
	return Parse(data)
}

// Parse decodes an election definition and builds its lookup indexes.
func Parse(data []byte) (*Election, error) {
	var e Election
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("failed to decode election definition: %w", err)
	}

	sum := sha256.Sum256(data)
	e.hash = hex.EncodeToString(sum[:])

	if err := e.index(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Election) index() error {
	var err error
	if e.precincts, err = indexIDs(e.Precincts, func(p Precinct) string { return p.ID }, "precinct"); err != nil {
		return err
	}
	if e.parties, err = indexIDs(e.Parties, func(p Party) string { return p.ID }, "party"); err != nil {
		return err
	}
	if e.contests, err = indexIDs(e.Contests, func(c Contest) string { return c.ID }, "contest"); err != nil {
		return err
	}
	if e.ballotStyles, err = indexIDs(e.BallotStyles, func(b BallotStyle) string { return b.ID }, "ballot style"); err != nil {
		return err
	}

	districts := make(map[string]struct{}, len(e.Districts))
	for _, d := range e.Districts {
		districts[d.ID] = struct{}{}
	}

	for _, c := range e.Contests {
		switch c.Type {
		case ContestCandidate:
			if c.Seats < 1 {
				return fmt.Errorf("%w: contest %q has %d seats", ErrInvalidDefinition, c.ID, c.Seats)
			}
			seen := make(map[string]struct{}, len(c.Candidates))
			for _, cand := range c.Candidates {
				if cand.ID == WriteInID {
					return fmt.Errorf("%w: contest %q uses reserved candidate id %q", ErrInvalidDefinition, c.ID, WriteInID)
				}
				if _, dup := seen[cand.ID]; dup {
					return fmt.Errorf("%w: contest %q lists candidate %q twice", ErrInvalidDefinition, c.ID, cand.ID)
				}
				seen[cand.ID] = struct{}{}
			}
		case ContestYesNo:
		default:
			return fmt.Errorf("%w: contest %q has unknown type %q", ErrInvalidDefinition, c.ID, c.Type)
		}
		if c.PartyID != "" {
			if _, ok := e.parties[c.PartyID]; !ok {
				return fmt.Errorf("%w: contest %q: %w %q", ErrInvalidDefinition, c.ID, ErrUnknownParty, c.PartyID)
			}
		}
	}

	e.styleContests = make(map[styleContest]struct{})
	for _, style := range e.BallotStyles {
		for _, p := range style.Precincts {
			if _, ok := e.precincts[p]; !ok {
				return fmt.Errorf("%w: ballot style %q: %w %q", ErrInvalidDefinition, style.ID, ErrUnknownPrecinct, p)
			}
		}
		for _, d := range style.Districts {
			if _, ok := districts[d]; !ok {
				return fmt.Errorf("%w: ballot style %q references unknown district %q", ErrInvalidDefinition, style.ID, d)
			}
		}
		if style.PartyID != "" {
			if _, ok := e.parties[style.PartyID]; !ok {
				return fmt.Errorf("%w: ballot style %q: %w %q", ErrInvalidDefinition, style.ID, ErrUnknownParty, style.PartyID)
			}
		}
		for _, c := range contestsForStyle(e.Contests, style) {
			e.styleContests[styleContest{style.ID, c.ID}] = struct{}{}
		}
	}
	return nil
}

func indexIDs[T any](items []T, id func(T) string, kind string) (map[string]int, error) {
	idx := make(map[string]int, len(items))
	for i, item := range items {
		key := id(item)
		if key == "" {
			return nil, fmt.Errorf("%w: %s at index %d has no id", ErrInvalidDefinition, kind, i)
		}
		if _, dup := idx[key]; dup {
			return nil, fmt.Errorf("%w: duplicate %s id %q", ErrInvalidDefinition, kind, key)
		}
		idx[key] = i
	}
	return idx, nil
}
