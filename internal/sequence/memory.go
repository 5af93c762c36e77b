// Package sequence hands out monotonically increasing per-period invoice sequence
// numbers, serialising number allocation across concurrent creators.
package sequence

import (
	"context"
	"sync"
)

// Memory is a process-local sequencer.
type Memory struct {
	mu      sync.Mutex
	current map[string]int
}

// NewMemory creates an empty in-process sequencer.
func NewMemory() *Memory {
	return &Memory{current: make(map[string]int)}
}

// Next returns the next number for period, never less than floor+1.
func (m *Memory) Next(ctx context.Context, period string, floor int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.current[period]
	if cur < floor {
		cur = floor
	}
	cur++
	m.current[period] = cur
	return cur, nil
}
