// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package compressed encodes tallies as fixed-shape integer arrays for the
smart card and QR codes.

# Shape

One row per contest, in election definition order:

	candidate contest: [candidate_1, ..., candidate_n, write_in?]
	yes/no contest:    [yes, no]

The write-in slot exists only when the contest allows write-ins. Readers of
the array know nothing else about the election, so this layout is fixed.

Metadata travels separately, one [undervotes, overvotes, ballots] row per
contest.

# Decoding

	t, err := compressed.Decode(e, rows, meta)

Decode fails with a *ShapeError (errors.Is ErrShapeMismatch) when the row
count or any row length disagrees with the election.
*/
package compressed
