package sequence

import (
	"context"
	"sync"
)

// Memory is a mutex-guarded allocator for single-process deployments and
// tests. Safe for concurrent use; issued values never repeat.
type Memory struct {
	mu       sync.Mutex
	counters map[string]uint64
}

func NewMemory() *Memory {
	return &Memory{counters: make(map[string]uint64)}
}

func (m *Memory) Next(ctx context.Context, counter string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.counters[counter]
	if !ok {
		v = Reserved
	}
	m.counters[counter] = v + 1
	return v, nil
}

func (m *Memory) Current(ctx context.Context, counter string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.counters[counter]
	if !ok {
		return Reserved, nil
	}
	return v, nil
}
