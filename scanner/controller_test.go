// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danielhkuo/ballot-tally/classify"
)

type fakeClient struct {
	mu        sync.Mutex
	status    Status
	sheet     Sheet
	scanErr   error
	acceptErr error
	scanHook  func()
	calHook   func()

	scans, accepts, returns, calibrations int
}

func (f *fakeClient) GetStatus(context.Context) (StatusReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return StatusReport{Status: f.status}, nil
}

func (f *fakeClient) setStatus(s Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func (f *fakeClient) Scan(context.Context) (Sheet, error) {
	f.mu.Lock()
	f.scans++
	hook := f.scanHook
	sheet, err := f.sheet, f.scanErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return sheet, err
}

func (f *fakeClient) Accept(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepts++
	return f.acceptErr
}

func (f *fakeClient) Return(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returns++
	return nil
}

func (f *fakeClient) Calibrate(context.Context) error {
	f.mu.Lock()
	f.calibrations++
	hook := f.calHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

// timers records dismiss timers instead of running them.
type timers struct {
	mu  sync.Mutex
	all []*fakeTimer
}

func (ts *timers) afterFunc(d time.Duration, fn func()) stopper {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	ts.all = append(ts.all, t)
	return t
}

func (ts *timers) last(t *testing.T) *fakeTimer {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.all)
	return ts.all[len(ts.all)-1]
}

var (
	bmdSheet = Sheet{
		Front: classify.PageInterpretation{Type: classify.PageInterpretedBmd},
		Back:  classify.PageInterpretation{Type: classify.PageBlank},
	}
	blankSheet = Sheet{
		Front: classify.PageInterpretation{Type: classify.PageInterpretedHmpb, Adjudication: classify.AdjudicationInfo{
			RequiresAdjudication: true,
			EnabledReasons:       []classify.AdjudicationReason{{Type: classify.ReasonBlankBallot}},
		}},
		Back: classify.PageInterpretation{Type: classify.PageInterpretedHmpb, Adjudication: classify.AdjudicationInfo{
			RequiresAdjudication: true,
			EnabledReasons:       []classify.AdjudicationReason{{Type: classify.ReasonBlankBallot}},
		}},
	}
	wrongPrecinctSheet = Sheet{
		Front: classify.PageInterpretation{Type: classify.PageInvalidPrecinct},
		Back:  classify.PageInterpretation{Type: classify.PageBlank},
	}
)

func newTestController(t *testing.T, client *fakeClient, logger *zap.Logger) (*Controller, *timers) {
	t.Helper()
	c := NewController(client, Options{CastDismiss: 3 * time.Second, ErrorDismiss: 7 * time.Second}, logger)
	ts := &timers{}
	c.afterFunc = ts.afterFunc
	c.SetPollsOpen(true)
	return c, ts
}

func TestControllerCastsAcceptedSheet(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, sheet: bmdSheet}
	c, ts := newTestController(t, client, nil)

	require.NoError(t, c.CheckStatus(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, Cast, snap.State)
	assert.Equal(t, 1, snap.BallotsCounted)
	require.NotNil(t, snap.LastResult)
	assert.Equal(t, classify.Accepted, snap.LastResult.Type)
	assert.Equal(t, 1, client.scans)
	assert.True(t, c.status.Enabled(), "polling resumes after the scan")

	timer := ts.last(t)
	assert.Equal(t, 3*time.Second, timer.d)
	timer.fn()
	assert.Equal(t, Idle, c.Snapshot().State)
}

func TestControllerPollingDisabledDuringScan(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, sheet: bmdSheet}
	c, _ := newTestController(t, client, nil)

	var enabledDuringScan bool
	client.scanHook = func() { enabledDuringScan = c.status.Enabled() }

	require.NoError(t, c.CheckStatus(context.Background()))
	assert.False(t, enabledDuringScan)
	assert.True(t, c.status.Enabled())
}

func TestControllerReviewThenAccept(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, sheet: blankSheet}
	c, _ := newTestController(t, client, nil)

	require.NoError(t, c.CheckStatus(context.Background()))
	snap := c.Snapshot()
	assert.Equal(t, NeedsReview, snap.State)
	assert.Equal(t, 0, snap.BallotsCounted)
	assert.Equal(t, []classify.AdjudicationReason{{Type: classify.ReasonBlankBallot}}, snap.LastResult.Reasons)

	require.NoError(t, c.Accept(context.Background()))
	assert.Equal(t, 1, client.accepts)
	snap = c.Snapshot()
	assert.Equal(t, Cast, snap.State)
	assert.Equal(t, 1, snap.BallotsCounted)
}

func TestControllerAcceptFailureRejects(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, sheet: blankSheet, acceptErr: errors.New("paper jam")}
	c, _ := newTestController(t, client, nil)

	require.NoError(t, c.CheckStatus(context.Background()))
	require.NoError(t, c.Accept(context.Background()))
	assert.Equal(t, Rejected, c.Snapshot().State)
	assert.Equal(t, 0, c.Snapshot().BallotsCounted)

	require.NoError(t, c.Return(context.Background()))
	assert.Equal(t, 1, client.returns)

	client.setStatus(StatusWaitingForPaper)
	require.NoError(t, c.CheckStatus(context.Background()))
	assert.Equal(t, Idle, c.Snapshot().State)
}

func TestControllerRejectedSheet(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, sheet: wrongPrecinctSheet}
	c, ts := newTestController(t, client, nil)

	require.NoError(t, c.CheckStatus(context.Background()))
	snap := c.Snapshot()
	assert.Equal(t, Rejected, snap.State)
	assert.Equal(t, classify.RejectInvalidPrecinct, snap.LastResult.RejectionReason)
	assert.Empty(t, ts.all, "rejected sheets wait for removal, not a timer")
}

func TestControllerScanFailure(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, scanErr: errors.New("timeout")}
	c, ts := newTestController(t, client, nil)

	require.NoError(t, c.CheckStatus(context.Background()))
	assert.Equal(t, ScannerError, c.Snapshot().State)
	assert.True(t, c.status.Enabled())

	timer := ts.last(t)
	assert.Equal(t, 7*time.Second, timer.d)
	timer.fn()
	assert.Equal(t, Idle, c.Snapshot().State)
}

func TestControllerStaleDismissIgnored(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, sheet: bmdSheet}
	c, ts := newTestController(t, client, nil)

	require.NoError(t, c.CheckStatus(context.Background()))
	first := ts.last(t)

	client.sheet = blankSheet
	require.NoError(t, c.CheckStatus(context.Background()))
	assert.True(t, first.stopped, "next scan cancels the cast screen timer")
	require.Equal(t, NeedsReview, c.Snapshot().State)

	first.fn()
	assert.Equal(t, NeedsReview, c.Snapshot().State)
}

func TestControllerInvalidOperatorRequest(t *testing.T) {
	client := &fakeClient{status: StatusWaitingForPaper}
	c, _ := newTestController(t, client, nil)

	err := c.Accept(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, client.accepts)
}

func TestControllerStopDiscardsScanResult(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, sheet: bmdSheet}
	c, _ := newTestController(t, client, nil)
	client.scanHook = c.Stop

	err := c.CheckStatus(context.Background())
	assert.ErrorIs(t, err, ErrStopped)

	snap := c.Snapshot()
	assert.Equal(t, Scanning, snap.State)
	assert.Equal(t, 0, snap.BallotsCounted)
}

func TestControllerCancelledContextDiscardsScanResult(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, sheet: bmdSheet}
	c, _ := newTestController(t, client, nil)

	ctx, cancel := context.WithCancel(context.Background())
	client.scanHook = cancel

	err := c.CheckStatus(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Snapshot().BallotsCounted)
}

func TestControllerPollingFollowsPolls(t *testing.T) {
	c := NewController(&fakeClient{}, Options{}, nil)
	assert.False(t, c.status.Enabled(), "polling starts disabled")

	c.SetPollsOpen(true)
	assert.True(t, c.status.Enabled())
	assert.True(t, c.Snapshot().PollsOpen)

	c.SetPollsOpen(false)
	assert.False(t, c.status.Enabled())
}

func TestControllerCalibrate(t *testing.T) {
	client := &fakeClient{status: StatusWaitingForPaper}
	c, _ := newTestController(t, client, nil)

	var enabledDuring bool
	client.calHook = func() { enabledDuring = c.status.Enabled() }

	require.NoError(t, c.Calibrate(context.Background()))
	assert.Equal(t, 1, client.calibrations)
	assert.False(t, enabledDuring)
	assert.True(t, c.status.Enabled())

	client.status = StatusReadyToScan
	client.sheet = blankSheet
	require.NoError(t, c.CheckStatus(context.Background()))
	require.Equal(t, NeedsReview, c.Snapshot().State)

	err := c.Calibrate(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, client.calibrations)
}

func TestControllerBallotCount(t *testing.T) {
	client := &fakeClient{status: StatusReadyToScan, sheet: bmdSheet}
	c := NewController(client, Options{InitialBallots: 41}, nil)
	c.afterFunc = (&timers{}).afterFunc
	c.SetPollsOpen(true)

	require.NoError(t, c.CheckStatus(context.Background()))
	assert.Equal(t, 42, c.Snapshot().BallotsCounted)

	c.ResetBallotCount()
	assert.Equal(t, 0, c.Snapshot().BallotsCounted)
}

func TestControllerLogsIgnoredStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	client := &fakeClient{status: Status("Overheated")}
	c, _ := newTestController(t, client, zap.New(core))

	require.NoError(t, c.CheckStatus(context.Background()))

	entries := logs.FilterMessage("ignoring scanner status").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "Overheated", entries[0].ContextMap()["status"])
	assert.Equal(t, Idle, c.Snapshot().State)
}
