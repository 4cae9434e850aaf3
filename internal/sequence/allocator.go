// Package sequence issues monotonically increasing identifiers per named
// counter. Values below Reserved are never issued; they are set aside for
// system and error codes.
package sequence

import "context"

// Counter names owned by the directory registries.
const (
	CounterUsernames = "registered_usernames"
	CounterAccounts  = "registry_count"
	CounterRelations = "relations_count"
	CounterDelegates = "delegates_count"
)

// Reserved is the size of the low identifier range that is never issued.
// The first value any counter returns is Reserved (100).
const Reserved uint64 = 100

// Allocator hands out the next value of a named counter. Implementations
// guarantee strictly increasing, gap-free values across serialized operations.
type Allocator interface {
	// Next issues the counter's next value and advances it.
	Next(ctx context.Context, counter string) (uint64, error)
	// Current returns the value Next would issue, without advancing.
	Current(ctx context.Context, counter string) (uint64, error)
}
