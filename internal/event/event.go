// Package event holds the directory's append-only event log. The log is the
// authoritative external record: off-chain observers replay it to reconstruct
// registry and social-graph state, and no other component stores denormalized
// history.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type names a directory event.
type Type string

const (
	TypeUsernameRegistered Type = "UsernameRegistered"
	TypeUsernameReclaimed  Type = "UsernameReclaimed"
	TypeAccountCreated     Type = "AccountCreated"
	TypeAccountDeleted     Type = "AccountDeleted"
	TypeProfileUpdated     Type = "ProfileUpdated"
	TypeFollowed           Type = "Followed"
	TypeUnfollowed         Type = "Unfollowed"
	TypeDelegateCreated    Type = "DelegateCreated"
	TypeDelegateRemoved    Type = "DelegateRemoved"
)

// Attrs carries the event payload. Values must be JSON-encodable.
type Attrs map[string]any

// Event is one entry in the log. Seq is assigned by the store on append and
// is strictly increasing; At is the transaction time of the operation that
// emitted it.
type Event struct {
	ID    uuid.UUID `json:"id"`
	Seq   uint64    `json:"seq"`
	Type  Type      `json:"type"`
	At    time.Time `json:"at"`
	Attrs Attrs     `json:"attrs"`
}

// New builds an event ready for appending. Seq stays zero until the store
// assigns it.
func New(typ Type, at time.Time, attrs Attrs) Event {
	return Event{
		ID:    uuid.New(),
		Type:  typ,
		At:    at.UTC(),
		Attrs: attrs,
	}
}
