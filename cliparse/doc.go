// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

Every flag falls back to an environment variable. A .env file in the working
directory is loaded first when present; variables already set in the
environment win over it.

	-p                  PORT                    Server port (default 3318)
	-d                  DATABASE_URL            Database URL (default file:precinct.db)
	-t                  DATABASE_TYPE           sqlite or postgres (default sqlite)
	-election           ELECTION_PATH           Election definition (required)
	-precinct           PRECINCT_ID             Precinct id (default all precincts)
	-machine-id         MACHINE_ID              Machine id (default random UUID)
	-live               LIVE_MODE               Live mode (default test mode)
	-scanner            SCANNER_URL             Scanner service URL
	-status-interval    STATUS_POLL_INTERVAL    Scanner status poll interval (default 500ms)
	-hardware-interval  HARDWARE_POLL_INTERVAL  Battery poll interval (default 3s)
	-cast-dismiss       CAST_DISMISS_DELAY      Ballot cast screen time (default 5s)
	-error-dismiss      ERROR_DISMISS_DELAY     Scanner error screen time (default 5s)
	-card               CARD_BACKEND            memory or redis (default memory)
	-redis              REDIS_ADDR              Card bridge address (default localhost:6379)

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if the election path is missing, the database
type or card backend is unknown, or any interval is not positive.
*/
package cliparse
