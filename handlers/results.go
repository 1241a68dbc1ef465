// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/card"
	"github.com/danielhkuo/ballot-tally/compressed"
	"github.com/danielhkuo/ballot-tally/db"
	"github.com/danielhkuo/ballot-tally/middleware"
	"github.com/danielhkuo/ballot-tally/models"
)

type ResultsHandler struct {
	store  *db.SnapshotStore
	logger *zap.Logger
}

func NewResultsHandler(store *db.SnapshotStore, logger *zap.Logger) *ResultsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsHandler{store: store, logger: logger}
}

// GetLatest handles GET /tally/latest
func (h *ResultsHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SnapshotResponse{
		SnapshotSummary: summarize(*snap),
		Payload:         json.RawMessage(snap.Payload),
	})
}

// GetLatestQR handles GET /tally/latest/qr
func (h *ResultsHandler) GetLatestQR(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w, r)
	if !ok {
		return
	}

	var payload card.TallyPayload
	if err := json.Unmarshal(snap.Payload, &payload); err != nil {
		h.logger.Error("failed to parse snapshot payload", zap.String("snapshot_id", snap.ID), zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to parse results")
		return
	}
	data, err := compressed.EncodeQR(payload.Tally)
	if err != nil {
		h.logger.Error("failed to encode QR payload", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to encode results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.QRResponse{SnapshotID: snap.ID, Data: data})
}

// GetSnapshot handles GET /tally/snapshots/{id}
func (h *ResultsHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrSnapshotNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Snapshot not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load snapshot", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SnapshotResponse{
		SnapshotSummary: summarize(*snap),
		Payload:         json.RawMessage(snap.Payload),
	})
}

// ListSnapshots handles GET /tally/snapshots?limit=n
func (h *ResultsHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	snaps, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list snapshots", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	out := make([]models.SnapshotSummary, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, summarize(s))
	}
	middleware.JSONResponse(w, http.StatusOK, out)
}

func (h *ResultsHandler) latest(w http.ResponseWriter, r *http.Request) (*db.Snapshot, bool) {
	snap, err := h.store.Latest(r.Context())
	if errors.Is(err, db.ErrSnapshotNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No tally has been taken yet")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load latest snapshot", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return nil, false
	}
	return snap, true
}

func summarize(s db.Snapshot) models.SnapshotSummary {
	return models.SnapshotSummary{
		ID:              s.ID,
		PollsTransition: s.PollsTransition,
		BallotCount:     s.BallotCount,
		InputsHash:      s.InputsHash,
		ComputedAt:      s.ComputedAt,
	}
}
