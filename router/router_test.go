// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/ballot-tally/db"
	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/models"
	"github.com/danielhkuo/ballot-tally/polls"
	"github.com/danielhkuo/ballot-tally/scanner"
	"github.com/danielhkuo/ballot-tally/testutil"
)

func setupRouter(t *testing.T) *http.ServeMux {
	t.Helper()
	e := testutil.GeneralElection(t)
	conn := testutil.SetupTestDB(t)
	store := db.NewSnapshotStore(conn, db.SQLite, nil)

	client := &testutil.Scanner{}
	c := scanner.NewController(client, scanner.Options{CastDismiss: time.Hour, ErrorDismiss: time.Hour}, nil)
	t.Cleanup(c.Stop)

	export := &testutil.Export{Body: testutil.CVRLines(t,
		testutil.CVR{BallotID: "b-1", BallotStyleID: "2", PrecinctID: "precinct-20", ScannerID: "scanner-0001",
			Votes: map[string][]string{"president": {"jackie-chan"}, "measure-1": {"no"}}},
	)}
	tab := polls.NewTabulator(e, export, polls.TabulatorOptions{MachineID: "scanner-0001", Now: testutil.Clock(time.Now())}, nil,
		polls.StorePersister{Store: store})
	l, err := polls.NewLifecycle(e, tab, "scanner-0001", election.AllPrecincts(), nil, polls.WithScannerGate(c))
	require.NoError(t, err)

	return NewRouter(Deps{
		Controller: c,
		Lifecycle:  l,
		Hardware:   scanner.NewHardwareMonitor(client, time.Hour, nil),
		Snapshots:  store,
	})
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRoutesExist(t *testing.T) {
	router := setupRouter(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/status"},
		{http.MethodPost, "/polls/open"},
		{http.MethodPost, "/polls/pause"},
		{http.MethodPost, "/polls/close"},
		{http.MethodPut, "/polls/precinct"},
		{http.MethodPost, "/polls/precinct/confirm"},
		{http.MethodPost, "/ballot/accept"},
		{http.MethodPost, "/ballot/return"},
		{http.MethodPost, "/scanner/calibrate"},
		{http.MethodGet, "/tally/latest"},
		{http.MethodGet, "/tally/latest/qr"},
		{http.MethodGet, "/tally/snapshots"},
		{http.MethodGet, "/tally/snapshots/some-id"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			// Handlers may answer 404 for missing data, but the body is then JSON
			assert.NotEqual(t, http.StatusMethodNotAllowed, w.Code)
			if w.Code == http.StatusNotFound {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestUnknownRoutes(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/polls/open", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/tally/latest", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestPollsToQRFlow(t *testing.T) {
	router := setupRouter(t)

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.MakeRequest(method, path, nil, nil))
		return w
	}

	w := do(http.MethodPost, "/polls/open")
	testutil.AssertStatus(t, w, http.StatusOK)

	w = do(http.MethodPost, "/polls/close")
	testutil.AssertStatus(t, w, http.StatusOK)
	var closed models.TransitionResponse
	testutil.AssertJSON(t, w, &closed)
	assert.Equal(t, polls.ClosedFinal, closed.State)

	w = do(http.MethodGet, "/tally/latest")
	testutil.AssertStatus(t, w, http.StatusOK)
	var latest models.SnapshotResponse
	testutil.AssertJSON(t, w, &latest)
	assert.Equal(t, closed.SnapshotID, latest.ID)
	assert.Equal(t, 1, latest.BallotCount)

	w = do(http.MethodGet, "/tally/latest/qr")
	testutil.AssertStatus(t, w, http.StatusOK)
	var qr models.QRResponse
	testutil.AssertJSON(t, w, &qr)
	assert.Equal(t, closed.SnapshotID, qr.SnapshotID)
	assert.NotEmpty(t, qr.Data)

	w = do(http.MethodGet, "/tally/snapshots/"+closed.SnapshotID)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = do(http.MethodGet, "/status")
	testutil.AssertStatus(t, w, http.StatusOK)
	var status models.StatusResponse
	testutil.AssertJSON(t, w, &status)
	assert.Equal(t, polls.ClosedFinal, status.Polls.State)
	assert.False(t, status.Ballot.PollsOpen)
}
