// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/middleware"
	"github.com/danielhkuo/ballot-tally/models"
	"github.com/danielhkuo/ballot-tally/scanner"
)

type BallotHandler struct {
	controller *scanner.Controller
	logger     *zap.Logger
}

func NewBallotHandler(c *scanner.Controller, logger *zap.Logger) *BallotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BallotHandler{controller: c, logger: logger}
}

// AcceptBallot handles POST /ballot/accept
func (h *BallotHandler) AcceptBallot(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, h.controller.Accept)
}

// ReturnBallot handles POST /ballot/return
func (h *BallotHandler) ReturnBallot(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, h.controller.Return)
}

// Calibrate handles POST /scanner/calibrate
func (h *BallotHandler) Calibrate(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, h.controller.Calibrate)
}

func (h *BallotHandler) operate(w http.ResponseWriter, r *http.Request, fn func(context.Context) error) {
	err := fn(r.Context())
	switch {
	case errors.Is(err, scanner.ErrInvalidTransition):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, scanner.ErrStopped):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Scanner is shutting down")
		return
	case err != nil:
		h.logger.Error("scanner operation failed", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusBadGateway, "Scanner operation failed")
		return
	}

	snap := h.controller.Snapshot()
	middleware.JSONResponse(w, http.StatusOK, models.BallotResponse{
		State:          snap.State,
		BallotsCounted: snap.BallotsCounted,
	})
}
