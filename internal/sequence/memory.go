package sequence

import (
	"context"
	"sync"
)

// Memory is a process-local Generator.
type Memory struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemory() *Memory {
	return &Memory{counters: make(map[string]int64)}
}

func (m *Memory) Next(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
	return m.counters[name], nil
}
