// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/poller"
)

// LowBattery is the level below which a warning is logged.
const LowBattery = 0.1

type HardwareClient interface {
	GetBattery(ctx context.Context) (BatteryInfo, error)
}

// HardwareMonitor polls the battery and logs power changes.
type HardwareMonitor struct {
	client HardwareClient
	logger *zap.Logger
	poller *poller.Poller

	mu   sync.Mutex
	last *BatteryInfo
}

func NewHardwareMonitor(client HardwareClient, interval time.Duration, logger *zap.Logger) *HardwareMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &HardwareMonitor{client: client, logger: logger.Named("hardware")}
	m.poller = poller.New("hardware", interval, m.Check, m.logger)
	return m
}

func (m *HardwareMonitor) Start(ctx context.Context) { m.poller.Start(ctx) }

func (m *HardwareMonitor) Stop() { m.poller.Stop() }

// Battery returns the last reading, if any.
func (m *HardwareMonitor) Battery() (BatteryInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return BatteryInfo{}, false
	}
	return *m.last, true
}

// Check reads the battery once.
func (m *HardwareMonitor) Check(ctx context.Context) error {
	info, err := m.client.GetBattery(ctx)
	if err != nil {
		return fmt.Errorf("failed to read battery: %w", err)
	}

	m.mu.Lock()
	prev := m.last
	m.last = &info
	m.mu.Unlock()

	if prev == nil || prev.Discharging != info.Discharging {
		m.logger.Info("power source changed",
			zap.Bool("discharging", info.Discharging),
			zap.Float64("level", info.Level))
	}
	if info.Discharging && info.Level < LowBattery && (prev == nil || prev.Level >= LowBattery) {
		m.logger.Warn("battery low", zap.Float64("level", info.Level))
	}
	return nil
}
