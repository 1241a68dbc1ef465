// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "fmt"

// Precinct selection kinds
const (
	SelectAllPrecincts   = "AllPrecincts"
	SelectSinglePrecinct = "SinglePrecinct"
)

// PrecinctSelection is which precincts a scanner is configured to accept.
type PrecinctSelection struct {
	Kind       string `json:"kind"`
	PrecinctID string `json:"precinctId,omitempty"`
}

func AllPrecincts() PrecinctSelection {
	return PrecinctSelection{Kind: SelectAllPrecincts}
}

func SinglePrecinct(id string) PrecinctSelection {
	return PrecinctSelection{Kind: SelectSinglePrecinct, PrecinctID: id}
}

// Includes reports whether ballots from precinctID belong to the selection.
func (s PrecinctSelection) Includes(precinctID string) bool {
	return s.Kind == SelectAllPrecincts || s.PrecinctID == precinctID
}

func (s PrecinctSelection) String() string {
	if s.Kind == SelectAllPrecincts {
		return "all precincts"
	}
	return "precinct " + s.PrecinctID
}

// ValidateSelection checks the selection against the election's precincts.
func (e *Election) ValidateSelection(s PrecinctSelection) error {
	switch s.Kind {
	case SelectAllPrecincts:
		if s.PrecinctID != "" {
			return fmt.Errorf("%w: all-precincts selection names precinct %q", ErrInvalidDefinition, s.PrecinctID)
		}
		return nil
	case SelectSinglePrecinct:
		if _, ok := e.Precinct(s.PrecinctID); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPrecinct, s.PrecinctID)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown precinct selection kind %q", ErrInvalidDefinition, s.Kind)
}
