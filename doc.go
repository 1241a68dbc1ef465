// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the precinct scanner service.

The service drives a precinct ballot scanner through election day: it polls
the scanner hardware, moves each sheet through scanning, review and cast,
and at every polls transition (open, pause, resume, close) tabulates the
scanner's cast vote record export and saves the tally to the snapshot store
and the poll worker card.

# Starting the Server

	ELECTION_PATH=election.json go run .

Or with flags:

	go run . -election election.json -precinct precinct-23 -live

# Configuration

Required settings:

  - ELECTION_PATH (-election): election definition JSON

Common optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t), DATABASE_URL (-d): sqlite (default) or postgres
  - SCANNER_URL (-scanner): scanner service
  - CARD_BACKEND (-card), REDIS_ADDR (-redis): poll worker card
  - LOG_LEVEL, LOG_ENCODING: logger

See package cliparse for the full list.

# Architecture

  - election: election definition and lookups
  - cvr: cast vote record parsing and validation
  - tally: contest tallies and the full election tally
  - compressed: fixed-shape tally encoding for the card and QR code
  - classify: scanned sheet disposition
  - scanner: ballot state machine, controller and scanner client
  - polls: polls lifecycle and snapshot pipeline
  - card: poll worker card persistence
  - db: snapshot and polls state storage
  - poller: guarded periodic polling
  - handlers, router, middleware, models: HTTP API for the UI
  - cliparse, logging: configuration and logging

The tabulate command under cmd/tabulate runs the same tally offline over
export files.
*/
package main
