// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scanner drives the precinct scanner.

# Ballot states

A Machine tracks the sheet currently at the scanner:

	idle ──ReadyToScan──> scanning ──Accepted────> cast ──timeout──> idle
	                               ├─NeedsReview─> needs_review
	                               ├─Rejected────> rejected
	                               └─scan error──> scanner_error ──timeout──> idle

From needs_review the operator either accepts (cast) or returns the sheet;
needs_review and rejected go back to idle once the scanner reports it is
waiting for paper. Events a state does not handle are a *TransitionError
wrapping ErrInvalidTransition.

# Controller

Controller feeds hardware status polls and operator requests into the
Machine and performs the effects each transition asks for: start a scan,
accept or return the sheet, count the ballot, arm or cancel the dismiss
timer. Status polling runs through a poller.Poller and is paused while a
scan, accept or calibration is in flight, and whenever the polls are not
open. Statuses outside the known vocabulary are logged and ignored.

Stop invalidates every hardware call in flight; their results are discarded
rather than applied.

# Hardware

HTTPClient implements Client against the scanner service's JSON API and also
serves the battery reading and the cast vote record export. HardwareMonitor
polls the battery and logs power changes.
*/
package scanner
