// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Func is one poll. Errors are logged; the next tick runs regardless.
type Func func(ctx context.Context) error

// every is a fixed-interval cron schedule. cron.Every rounds to whole
// seconds, which is too coarse for scanner status polling.
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// Poller runs fn on a fixed interval with at most one call in flight. A tick
// that fires while the previous call is still running is dropped, not queued.
// Polling can be disabled without stopping the schedule.
type Poller struct {
	name     string
	interval time.Duration
	fn       Func
	logger   *zap.Logger

	inFlight *semaphore.Weighted
	enabled  atomic.Bool

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// New returns an enabled, unstarted poller.
func New(name string, interval time.Duration, fn Func, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Poller{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   logger.With(zap.String("poller", name)),
		inFlight: semaphore.NewWeighted(1),
	}
	p.enabled.Store(true)
	return p
}

// Start schedules ticks until Stop or until ctx is done. Calling Start on a
// running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(p.logger))))
	c.Schedule(every(p.interval), cron.FuncJob(func() {
		p.Tick(ctx)
	}))
	c.Start()

	p.cron = c
	p.cancel = cancel
	p.logger.Debug("poller started", zap.Duration("interval", p.interval))

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
}

// Stop cancels any call in flight and waits for it to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	c, cancel := p.cron, p.cancel
	p.cron, p.cancel = nil, nil
	p.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	p.logger.Debug("poller stopped")
}

func (p *Poller) Enable() {
	p.enabled.Store(true)
}

func (p *Poller) Disable() {
	p.enabled.Store(false)
}

func (p *Poller) Enabled() bool {
	return p.enabled.Load()
}

// Tick runs one poll now unless polling is disabled or a poll is already in
// flight. It reports whether fn ran.
func (p *Poller) Tick(ctx context.Context) bool {
	if !p.enabled.Load() {
		return false
	}
	if !p.inFlight.TryAcquire(1) {
		p.logger.Debug("poll dropped, previous poll still in flight")
		return false
	}
	defer p.inFlight.Release(1)

	if err := p.fn(ctx); err != nil && ctx.Err() == nil {
		p.logger.Warn("poll failed", zap.Error(err))
	}
	return true
}
