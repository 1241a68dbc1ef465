// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request and response types for the precinct API.

# Request Types

  - SetPrecinctRequest: kind, precinct_id

# Response Types

  - StatusResponse: ballot state, polls state, battery
  - TransitionResponse: state, transition, ballot_count, inputs_hash, snapshot_id, problems
  - BallotResponse: state, ballots_counted
  - SnapshotSummary / SnapshotResponse: stored tally snapshots
  - QRResponse: compressed tally text for a QR code
  - ErrorResponse: error, message
*/
package models
