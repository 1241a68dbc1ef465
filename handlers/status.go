// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/ballot-tally/middleware"
	"github.com/danielhkuo/ballot-tally/models"
	"github.com/danielhkuo/ballot-tally/polls"
	"github.com/danielhkuo/ballot-tally/scanner"
)

type StatusHandler struct {
	controller *scanner.Controller
	lifecycle  *polls.Lifecycle
	hardware   *scanner.HardwareMonitor
}

// NewStatusHandler builds the status handler. hardware may be nil.
func NewStatusHandler(c *scanner.Controller, l *polls.Lifecycle, hardware *scanner.HardwareMonitor) *StatusHandler {
	return &StatusHandler{controller: c, lifecycle: l, hardware: hardware}
}

// GetStatus handles GET /status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := models.StatusResponse{
		Ballot: h.controller.Snapshot(),
		Polls:  h.lifecycle.Status(),
	}
	if h.hardware != nil {
		if battery, ok := h.hardware.Battery(); ok {
			resp.Battery = &battery
		}
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
