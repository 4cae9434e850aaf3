package event

import "context"

// Log is the append-only event store. Append runs inside the caller's
// transaction boundary: a failed operation rolls its events back with it.
type Log interface {
	// Append assigns the next sequence number and persists the event.
	Append(ctx context.Context, ev Event) (Event, error)
	// List returns up to limit events with Seq > afterSeq, in order.
	List(ctx context.Context, afterSeq uint64, limit int) ([]Event, error)
}

// Publisher fans committed events out to external observers. Publishing is
// best-effort; the Log remains the authoritative record.
type Publisher interface {
	Publish(ctx context.Context, evs ...Event) error
}
