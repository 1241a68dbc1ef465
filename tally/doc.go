// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally computes vote counts from cast vote records.

# Contest Tallies

CalculateContestTally counts one contest's votes. Options appear in
definition order (candidates, then the write-in slot when allowed; or yes,
then no). A vote with no selections (undervote) or more selections than the
contest allows (overvote) increments nothing.

ContestMeta reports the volume that was excluded:

	meta := tally.ContestMeta(contest, votes)
	// meta.Ballots, meta.Overvotes, meta.Undervotes

# Full Election Tally

	full := tally.ComputeFullElectionTally(e, records)

Records first pass through ProcessCastVoteRecord, which drops a record whose
precinct does not use its ballot style, drops contests that are not on the
ballot style, and normalizes candidate selections. An id outside the
definition becomes election.WriteInID when the contest allows write-ins and is
kept as is otherwise; the number of selections never changes, so a ballot
that overvoted with an unknown id is still an overvote.

The result holds:

  - Overall: every accepted record
  - ByPrecinct: one Tally per definition precinct
  - ByScanner: one Tally per scanner that produced records
  - ByParty: FilterTallyByParty of Overall for each party with ballot styles
  - OvervotePairs: candidate pairs marked together on overvoted ballots
  - BallotCounts: [precinct, absentee] counts keyed "{partyId},{precinctId}"

Precinct tallies partition Overall: summed over precincts, every option count
and every contest's ballot count equals the overall figure.

Tabulation is pure: no I/O, no logging, no shared state. Running it twice on
the same records gives identical output.
*/
package tally
