// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the precinct scanner UI.

# Handler Types

Each handler is a struct over the service component it exposes:

  - StatusHandler: ballot state, polls state and battery in one read
  - PollsHandler: polls transitions and precinct selection
  - BallotHandler: operator actions on the sheet in the scanner
  - ResultsHandler: stored tally snapshots and the QR payload

# Polls

	POST /polls/open              → OpenPolls (also resumes from paused)
	POST /polls/pause             → PausePolls
	POST /polls/close             → ClosePolls
	PUT  /polls/precinct          → SetPrecinct
	POST /polls/precinct/confirm  → ConfirmPrecinct

Each transition tabulates the scanner's export before the state changes. So
does a precinct change once the polls have opened: the ballots counted so far
are stored as a reset_polls snapshot, then the polls go back to closed and the
change must be confirmed. An action that is not valid in the current state,
a precinct change after the polls closed, or an open that still needs the
precinct change confirmed, is 409 Conflict.

# Ballot

	POST /ballot/accept     → AcceptBallot (sheet under review)
	POST /ballot/return     → ReturnBallot
	POST /scanner/calibrate → Calibrate

# Results

	GET /tally/latest          → GetLatest
	GET /tally/latest/qr       → GetLatestQR
	GET /tally/snapshots       → ListSnapshots
	GET /tally/snapshots/{id}  → GetSnapshot
*/
package handlers
