// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package card

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
)

// MemoryCard keeps the card contents in memory. Capacity, when positive,
// rejects larger writes the way a physical card does.
type MemoryCard struct {
	Capacity int

	mu     sync.Mutex
	data   []byte
	writes int
}

func NewMemoryCard(capacity int) *MemoryCard {
	return &MemoryCard{Capacity: capacity}
}

func (m *MemoryCard) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Capacity > 0 && len(data) > m.Capacity {
		return fmt.Errorf("%w: %s > %s", ErrCardFull,
			humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(m.Capacity)))
	}
	m.data = append(m.data[:0:0], data...)
	m.writes++
	return nil
}

func (m *MemoryCard) Read(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrCardEmpty
	}
	return append([]byte(nil), m.data...), nil
}

// Writes counts successful writes.
func (m *MemoryCard) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
