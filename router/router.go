// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/db"
	"github.com/danielhkuo/ballot-tally/handlers"
	"github.com/danielhkuo/ballot-tally/middleware"
	"github.com/danielhkuo/ballot-tally/polls"
	"github.com/danielhkuo/ballot-tally/scanner"
)

// Deps are the service components the routes expose. Hardware may be nil.
type Deps struct {
	Controller *scanner.Controller
	Lifecycle  *polls.Lifecycle
	Hardware   *scanner.HardwareMonitor
	Snapshots  *db.SnapshotStore
	Logger     *zap.Logger
}

func NewRouter(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	log := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(logger, h)
	}

	// Initialize handlers
	statusHandler := handlers.NewStatusHandler(d.Controller, d.Lifecycle, d.Hardware)
	pollsHandler := handlers.NewPollsHandler(d.Lifecycle, logger)
	ballotHandler := handlers.NewBallotHandler(d.Controller, logger)
	resultsHandler := handlers.NewResultsHandler(d.Snapshots, logger)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /status", statusHandler.GetStatus)

	// Polls lifecycle
	mux.HandleFunc("POST /polls/open", log(pollsHandler.OpenPolls))
	mux.HandleFunc("POST /polls/pause", log(pollsHandler.PausePolls))
	mux.HandleFunc("POST /polls/close", log(pollsHandler.ClosePolls))
	mux.HandleFunc("PUT /polls/precinct", log(pollsHandler.SetPrecinct))
	mux.HandleFunc("POST /polls/precinct/confirm", log(pollsHandler.ConfirmPrecinct))

	// Operator actions
	mux.HandleFunc("POST /ballot/accept", log(ballotHandler.AcceptBallot))
	mux.HandleFunc("POST /ballot/return", log(ballotHandler.ReturnBallot))
	mux.HandleFunc("POST /scanner/calibrate", log(ballotHandler.Calibrate))

	// Tally snapshots
	mux.HandleFunc("GET /tally/latest", log(resultsHandler.GetLatest))
	mux.HandleFunc("GET /tally/latest/qr", log(resultsHandler.GetLatestQR))
	mux.HandleFunc("GET /tally/snapshots", log(resultsHandler.ListSnapshots))
	mux.HandleFunc("GET /tally/snapshots/{id}", log(resultsHandler.GetSnapshot))

	return mux
}
