// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package polls runs the polls lifecycle and the tally snapshot taken at each
transition.

# States

	polls_closed_initial ──open──> polls_open ──pause──> polls_paused
	                                   │  <──open (resume)───┘  │
	                                   └──close──> polls_closed_final <──close──┘

polls_closed_final is terminal. Every transition runs Tabulator.Run before
the state changes; when it fails the state is left as it was.

# Precinct changes

SetPrecinctSelection outside polls_closed_initial puts the machine back into
polls_closed_initial and sets NeedsConfirmation. Open returns
ErrConfirmationRequired until ConfirmPrecinctChange is called.

# Snapshots

Tabulator fetches the cast vote record export, parses it, tallies it,
encodes the compressed tally and hands the Snapshot to its persisters:
CardPersister writes the card payload, StorePersister appends to the
snapshot store. Recomputing from an unchanged export gives the same
compressed tally and InputsHash.
*/
package polls
