package event

import (
	"context"
	"sync"
)

// InMemoryLog keeps the event log in an ordered slice. Used for tests and
// single-process deployments.
type InMemoryLog struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{}
}

func (l *InMemoryLog) Append(ctx context.Context, ev Event) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev.Seq = uint64(len(l.events)) + 1
	l.events = append(l.events, ev)
	return ev, nil
}

func (l *InMemoryLog) List(ctx context.Context, afterSeq uint64, limit int) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	out := make([]Event, 0, limit)
	for _, ev := range l.events {
		if ev.Seq <= afterSeq {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
