// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/classify"
	"github.com/danielhkuo/ballot-tally/poller"
)

var ErrStopped = errors.New("scanner controller stopped")

// Client is the scanner hardware service.
type Client interface {
	GetStatus(ctx context.Context) (StatusReport, error)
	Scan(ctx context.Context) (Sheet, error)
	Accept(ctx context.Context) error
	Return(ctx context.Context) error
	Calibrate(ctx context.Context) error
}

// Options configure a Controller. Zero values take the defaults below.
type Options struct {
	PollInterval   time.Duration
	CastDismiss    time.Duration
	ErrorDismiss   time.Duration
	InitialBallots int
}

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultCastDismiss  = 5 * time.Second
	DefaultErrorDismiss = 5 * time.Second
)

// Snapshot is a consistent read of the controller state.
type Snapshot struct {
	State          BallotState      `json:"state"`
	BallotsCounted int              `json:"ballotsCounted"`
	LastResult     *classify.Result `json:"lastResult,omitempty"`
	PollsOpen      bool             `json:"pollsOpen"`
}

type stopper interface {
	Stop() bool
}

// Controller drives the ballot state machine from hardware status polls and
// operator requests. All transitions are serialized; hardware calls run
// outside the state lock.
type Controller struct {
	client Client
	logger *zap.Logger
	opts   Options
	status *poller.Poller

	mu         sync.Mutex
	machine    *Machine
	ballots    int
	lastResult *classify.Result
	pollsOpen  bool
	busy       bool
	epoch      uint64
	dismiss    stopper
	dismissGen uint64

	afterFunc func(time.Duration, func()) stopper
}

func NewController(client Client, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.CastDismiss <= 0 {
		opts.CastDismiss = DefaultCastDismiss
	}
	if opts.ErrorDismiss <= 0 {
		opts.ErrorDismiss = DefaultErrorDismiss
	}
	c := &Controller{
		client:  client,
		logger:  logger.Named("scanner"),
		opts:    opts,
		machine: NewMachine(),
		ballots: opts.InitialBallots,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
	c.status = poller.New("scanner-status", opts.PollInterval, c.CheckStatus, c.logger)
	c.status.Disable()
	return c
}

// Start begins status polling. Polls do nothing until SetPollsOpen(true).
func (c *Controller) Start(ctx context.Context) {
	c.status.Start(ctx)
}

// Stop halts polling and the dismiss timer. Results of hardware calls still
// in flight are discarded.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.epoch++
	c.stopDismissLocked()
	c.mu.Unlock()
	c.status.Stop()
}

// SetPollsOpen gates scanning on the polls lifecycle.
func (c *Controller) SetPollsOpen(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollsOpen = open
	c.syncPollingLocked()
}

// ResetBallotCount is used when the precinct changes and a new count starts.
func (c *Controller) ResetBallotCount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ballots = 0
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:          c.machine.State(),
		BallotsCounted: c.ballots,
		LastResult:     c.lastResult,
		PollsOpen:      c.pollsOpen,
	}
}

// CheckStatus runs one status poll. It is the status poller's function and is
// exported so tests and the HTTP layer can force a poll.
func (c *Controller) CheckStatus(ctx context.Context) error {
	epoch := c.currentEpoch()
	report, err := c.client.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get scanner status: %w", err)
	}
	if !c.stillCurrent(ctx, epoch) {
		return nil
	}
	return c.dispatch(ctx, epoch, StatusPolled{Status: report.Status})
}

// Accept accepts a sheet that is waiting for review.
func (c *Controller) Accept(ctx context.Context) error {
	return c.dispatch(ctx, c.currentEpoch(), AcceptRequested{})
}

// Return hands a sheet under review or rejected back to the voter.
func (c *Controller) Return(ctx context.Context) error {
	return c.dispatch(ctx, c.currentEpoch(), ReturnRequested{})
}

// Calibrate runs scanner calibration with status polling paused.
func (c *Controller) Calibrate(ctx context.Context) error {
	c.mu.Lock()
	if st := c.machine.State(); st == Scanning || st == NeedsReview {
		c.mu.Unlock()
		return &TransitionError{State: st, Event: "calibrate"}
	}
	c.busy = true
	c.syncPollingLocked()
	c.mu.Unlock()

	err := c.client.Calibrate(ctx)

	c.mu.Lock()
	c.busy = false
	c.syncPollingLocked()
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to calibrate scanner: %w", err)
	}
	c.logger.Info("scanner calibrated")
	return nil
}

// dispatch applies ev and then any follow-up event produced by the hardware
// call its effects request, until the chain settles.
func (c *Controller) dispatch(ctx context.Context, epoch uint64, ev Event) error {
	for ev != nil {
		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return ErrStopped
		}
		tr, err := c.machine.Apply(ev)
		if err == nil {
			c.applyLocked(tr)
		}
		c.mu.Unlock()
		if err != nil {
			return err
		}

		if tr.Ignored {
			if polled, ok := ev.(StatusPolled); ok {
				c.logger.Warn("ignoring scanner status", zap.String("status", string(polled.Status)),
					zap.String("state", string(tr.To)))
			}
		} else if tr.From != tr.To {
			c.logger.Info("ballot state changed",
				zap.String("from", string(tr.From)),
				zap.String("to", string(tr.To)),
				zap.String("event", tr.Event))
		}

		ev = c.perform(ctx, tr.Effects)
		if ev != nil && !c.stillCurrent(ctx, epoch) {
			c.logger.Debug("discarding hardware result after cancellation", zap.String("event", ev.eventName()))
			if err := ctx.Err(); err != nil {
				return err
			}
			return ErrStopped
		}
	}
	return nil
}

// applyLocked runs the effects that only touch controller state.
func (c *Controller) applyLocked(tr Transition) {
	fx := tr.Effects
	if tr.Result != nil {
		c.lastResult = tr.Result
	}
	if fx.CountBallot {
		c.ballots++
	}
	if fx.CancelDismiss {
		c.stopDismissLocked()
	}
	switch fx.Dismiss {
	case DismissCast:
		c.scheduleDismissLocked(c.opts.CastDismiss)
	case DismissError:
		c.scheduleDismissLocked(c.opts.ErrorDismiss)
	}
	if fx.DisablePolling {
		c.busy = true
	}
	if fx.EnablePolling {
		c.busy = false
	}
	c.syncPollingLocked()
}

// perform runs the hardware effects and returns the event describing the
// outcome, or nil when there is none.
func (c *Controller) perform(ctx context.Context, fx Effects) Event {
	switch {
	case fx.BeginScan:
		sheet, err := c.client.Scan(ctx)
		if err != nil {
			c.logger.Error("scan failed", zap.Error(err))
			return ScanFailed{Err: err}
		}
		return ScanCompleted{Result: classify.Classify(sheet.Front, sheet.Back)}
	case fx.Accept:
		if err := c.client.Accept(ctx); err != nil {
			c.logger.Error("accept failed", zap.Error(err))
			return AcceptFailed{Err: err}
		}
		return AcceptSucceeded{}
	case fx.Return:
		if err := c.client.Return(ctx); err != nil {
			c.logger.Error("return failed", zap.Error(err))
		}
	}
	return nil
}

func (c *Controller) syncPollingLocked() {
	if c.pollsOpen && !c.busy {
		c.status.Enable()
	} else {
		c.status.Disable()
	}
}

func (c *Controller) scheduleDismissLocked(d time.Duration) {
	c.stopDismissLocked()
	gen := c.dismissGen
	epoch := c.epoch
	c.dismiss = c.afterFunc(d, func() {
		c.mu.Lock()
		stale := gen != c.dismissGen
		c.mu.Unlock()
		if stale {
			return
		}
		if err := c.dispatch(context.Background(), epoch, DismissTimeout{}); err != nil && !errors.Is(err, ErrStopped) {
			c.logger.Debug("dismiss timeout not applied", zap.Error(err))
		}
	})
}

func (c *Controller) stopDismissLocked() {
	c.dismissGen++
	if c.dismiss != nil {
		c.dismiss.Stop()
		c.dismiss = nil
	}
}

func (c *Controller) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *Controller) stillCurrent(ctx context.Context, epoch uint64) bool {
	if ctx.Err() != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch == epoch
}
