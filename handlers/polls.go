// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/middleware"
	"github.com/danielhkuo/ballot-tally/models"
	"github.com/danielhkuo/ballot-tally/polls"
)

type PollsHandler struct {
	lifecycle *polls.Lifecycle
	logger    *zap.Logger
}

func NewPollsHandler(l *polls.Lifecycle, logger *zap.Logger) *PollsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PollsHandler{lifecycle: l, logger: logger}
}

// OpenPolls handles POST /polls/open
func (h *PollsHandler) OpenPolls(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Open)
}

// PausePolls handles POST /polls/pause
func (h *PollsHandler) PausePolls(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Pause)
}

// ClosePolls handles POST /polls/close
func (h *PollsHandler) ClosePolls(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Close)
}

func (h *PollsHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context) (*polls.Snapshot, error)) {
	snap, err := fn(r.Context())
	switch {
	case errors.Is(err, polls.ErrInvalidTransition), errors.Is(err, polls.ErrConfirmationRequired):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("polls transition failed", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to tabulate ballots")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TransitionResponse{
		State:       h.lifecycle.Status().State,
		Transition:  snap.Transition,
		BallotCount: snap.BallotCount,
		InputsHash:  snap.InputsHash,
		SnapshotID:  snap.StoredID,
		Problems:    len(snap.Diagnostics),
	})
}

// SetPrecinct handles PUT /polls/precinct
func (h *PollsHandler) SetPrecinct(w http.ResponseWriter, r *http.Request) {
	var req models.SetPrecinctRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	err := h.lifecycle.SetPrecinctSelection(r.Context(), req.Selection())
	switch {
	case errors.Is(err, election.ErrUnknownPrecinct), errors.Is(err, election.ErrInvalidDefinition):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, polls.ErrInvalidTransition):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to set precinct", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to tabulate ballots")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, h.lifecycle.Status())
}

// ConfirmPrecinct handles POST /polls/precinct/confirm
func (h *PollsHandler) ConfirmPrecinct(w http.ResponseWriter, r *http.Request) {
	h.lifecycle.ConfirmPrecinctChange(r.Context())
	middleware.JSONResponse(w, http.StatusOK, h.lifecycle.Status())
}
