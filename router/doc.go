// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the precinct scanner service.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Deps{
		Controller: controller,
		Lifecycle:  lifecycle,
		Snapshots:  snapshots,
		Logger:     logger,
	})

# Endpoints

Health and status (polled by the UI, not request-logged):

	GET /health
	GET /status

Polls:

	POST /polls/open
	POST /polls/pause
	POST /polls/close
	PUT  /polls/precinct
	POST /polls/precinct/confirm

Operator actions:

	POST /ballot/accept
	POST /ballot/return
	POST /scanner/calibrate

Tally snapshots:

	GET /tally/latest
	GET /tally/latest/qr
	GET /tally/snapshots
	GET /tally/snapshots/{id}
*/
package router
