// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/ballot-tally/classify"
	"github.com/danielhkuo/ballot-tally/db"
	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/polls"
	"github.com/danielhkuo/ballot-tally/scanner"
	"github.com/danielhkuo/ballot-tally/testutil"
)

// testEnv is one scanner service wired over fakes.
type testEnv struct {
	scanner    *testutil.Scanner
	export     *testutil.Export
	controller *scanner.Controller
	lifecycle  *polls.Lifecycle
	hardware   *scanner.HardwareMonitor
	snapshots  *db.SnapshotStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := testutil.GeneralElection(t)
	conn := testutil.SetupTestDB(t)

	env := &testEnv{
		scanner: &testutil.Scanner{},
		export: &testutil.Export{Body: testutil.CVRLines(t,
			testutil.CVR{BallotID: "b-1", BallotStyleID: "1", PrecinctID: "precinct-23", ScannerID: "scanner-0001",
				Votes: map[string][]string{"president": {"jackie-chan"}}},
			testutil.CVR{BallotID: "b-2", BallotStyleID: "1", PrecinctID: "precinct-21", ScannerID: "scanner-0001",
				Votes: map[string][]string{"president": {"neil-armstrong"}}},
		)},
		snapshots: db.NewSnapshotStore(conn, db.SQLite, nil),
	}
	env.controller = scanner.NewController(env.scanner, scanner.Options{CastDismiss: time.Hour, ErrorDismiss: time.Hour}, nil)
	t.Cleanup(env.controller.Stop)
	env.hardware = scanner.NewHardwareMonitor(env.scanner, time.Hour, nil)

	tab := polls.NewTabulator(e, env.export, polls.TabulatorOptions{MachineID: "scanner-0001", Now: testutil.Clock(time.Now())}, nil,
		polls.StorePersister{Store: env.snapshots})
	l, err := polls.NewLifecycle(e, tab, "scanner-0001", election.AllPrecincts(), nil,
		polls.WithScannerGate(env.controller),
		polls.WithStateStore(db.NewPollsStateStore(conn, db.SQLite)))
	require.NoError(t, err)
	env.lifecycle = l
	return env
}

var reviewSheet = scanner.Sheet{
	Front: classify.PageInterpretation{Type: classify.PageInterpretedHmpb, Adjudication: classify.AdjudicationInfo{
		RequiresAdjudication: true,
		EnabledReasons:       []classify.AdjudicationReason{{Type: classify.ReasonOvervote, ContestID: "president"}},
	}},
	Back: classify.PageInterpretation{Type: classify.PageInterpretedHmpb},
}
