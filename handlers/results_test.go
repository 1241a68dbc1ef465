// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/ballot-tally/card"
	"github.com/danielhkuo/ballot-tally/compressed"
	"github.com/danielhkuo/ballot-tally/models"
	"github.com/danielhkuo/ballot-tally/polls"
	"github.com/danielhkuo/ballot-tally/testutil"
)

func openAndClose(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	_, err := env.lifecycle.Open(ctx)
	require.NoError(t, err)
	_, err = env.lifecycle.Close(ctx)
	require.NoError(t, err)
}

func TestResultsBeforeAnyTally(t *testing.T) {
	env := newTestEnv(t)
	h := NewResultsHandler(env.snapshots, nil)

	for _, fn := range []http.HandlerFunc{h.GetLatest, h.GetLatestQR} {
		w := httptest.NewRecorder()
		fn(w, testutil.MakeRequest(http.MethodGet, "/tally/latest", nil, nil))
		testutil.AssertStatus(t, w, http.StatusNotFound)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		assert.Equal(t, "No tally has been taken yet", resp.Message)
	}

	w := httptest.NewRecorder()
	h.ListSnapshots(w, testutil.MakeRequest(http.MethodGet, "/tally/snapshots", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetLatest(t *testing.T) {
	env := newTestEnv(t)
	openAndClose(t, env)
	h := NewResultsHandler(env.snapshots, nil)

	w := httptest.NewRecorder()
	h.GetLatest(w, testutil.MakeRequest(http.MethodGet, "/tally/latest", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.SnapshotResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, polls.TransitionClosePolls, resp.PollsTransition)
	assert.Equal(t, 2, resp.BallotCount)

	var payload card.TallyPayload
	require.NoError(t, json.Unmarshal(resp.Payload, &payload))
	assert.Equal(t, compressed.Tally{{1, 1, 0, 0}, {0, 0, 0, 0}, {0, 0}}, payload.Tally)
	assert.Equal(t, "scanner-0001", payload.MachineID)
}

func TestGetLatestQR(t *testing.T) {
	env := newTestEnv(t)
	openAndClose(t, env)
	h := NewResultsHandler(env.snapshots, nil)

	w := httptest.NewRecorder()
	h.GetLatestQR(w, testutil.MakeRequest(http.MethodGet, "/tally/latest/qr", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.QRResponse
	testutil.AssertJSON(t, w, &resp)
	assert.NotEmpty(t, resp.SnapshotID)

	got, err := compressed.DecodeQR(resp.Data)
	require.NoError(t, err)
	assert.Equal(t, compressed.Tally{{1, 1, 0, 0}, {0, 0, 0, 0}, {0, 0}}, got)
}

func TestListAndGetSnapshots(t *testing.T) {
	env := newTestEnv(t)
	openAndClose(t, env)
	h := NewResultsHandler(env.snapshots, nil)

	w := httptest.NewRecorder()
	h.ListSnapshots(w, testutil.MakeRequest(http.MethodGet, "/tally/snapshots", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var list []models.SnapshotSummary
	testutil.AssertJSON(t, w, &list)
	require.Len(t, list, 2)
	assert.Equal(t, polls.TransitionClosePolls, list[0].PollsTransition)
	assert.Equal(t, polls.TransitionOpenPolls, list[1].PollsTransition)

	w = httptest.NewRecorder()
	h.ListSnapshots(w, testutil.MakeRequest(http.MethodGet, "/tally/snapshots?limit=1", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var limited []models.SnapshotSummary
	testutil.AssertJSON(t, w, &limited)
	assert.Len(t, limited, 1)

	for _, bad := range []string{"abc", "0", "-3"} {
		w = httptest.NewRecorder()
		h.ListSnapshots(w, testutil.MakeRequest(http.MethodGet, "/tally/snapshots?limit="+bad, nil, nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	}

	req := testutil.MakeRequest(http.MethodGet, "/tally/snapshots/"+list[1].ID, nil, nil)
	req.SetPathValue("id", list[1].ID)
	w = httptest.NewRecorder()
	h.GetSnapshot(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var snap models.SnapshotResponse
	testutil.AssertJSON(t, w, &snap)
	assert.Equal(t, list[1].ID, snap.ID)
	assert.Equal(t, polls.TransitionOpenPolls, snap.PollsTransition)
	assert.NotEmpty(t, snap.Payload)

	req = testutil.MakeRequest(http.MethodGet, "/tally/snapshots/missing", nil, nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	h.GetSnapshot(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
