// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election holds the election definition the rest of the system reads.

# Loading

	e, err := election.LoadFile("election.json")

Load validates ids and cross references (ballot styles to precincts, districts
and parties) and builds lookup indexes. The returned *Election is read-only.

# Ballot Styles

A ballot style shows every contest whose district is in the style's districts
and whose party matches the style's party:

	contests, err := e.ContestsForBallotStyle("12D")
	ok := e.ContestValidForBallotStyle("12D", "mayor")

# Write-Ins

All write-in selections are folded into WriteInCandidate (id "__write-in").
The id is reserved and rejected if a definition lists it.
*/
package election
