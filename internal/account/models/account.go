package models

import (
	"strconv"
	"time"

	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
)

// NamespaceAccount seeds the deterministic derivation of account object
// addresses from their kid.
const NamespaceAccount = "nameplate:account"

// Named failures of the account registry.
var (
	ErrUsernameNotRegistered = dErrors.New(dErrors.CodeValidation, "username not registered")
	ErrUsernameNotOwned      = dErrors.New(dErrors.CodeForbidden, "username not owned by principal")
	ErrAccountExists         = dErrors.New(dErrors.CodeConflict, "account already exists for principal")
	ErrAccountNotFound       = dErrors.New(dErrors.CodeNotFound, "account not found")
	ErrDelegateNotFound      = dErrors.New(dErrors.CodeNotFound, "delegate not found")
	ErrNotPermitted          = dErrors.New(dErrors.CodeForbidden, "caller not permitted")
)

// AddressFor derives the object address of the account with the given kid.
func AddressFor(kid uint64) domain.Address {
	return domain.Derive(NamespaceAccount, strconv.FormatUint(kid, 10))
}

// AccountRecord is the root record for one principal.
//
// Invariants:
//   - Kid is assigned once at creation and never changes
//   - Delegates is ordered and duplicate-free
//   - PendingIntent holds at most one address; a new intent overwrites it
//   - Owner (the principal) is reachable back through the local reference
type AccountRecord struct {
	Address        domain.Address   `json:"address"`
	Kid            uint64           `json:"kid"`
	Owner          domain.Address   `json:"owner"`
	Username       string           `json:"username"`
	Delegates      []domain.Address `json:"delegates"`
	PendingIntent  *domain.Address  `json:"pending_intent,omitempty"`
	PublicationSeq uint64           `json:"publication_seq"`
	FollowSeq      uint64           `json:"follow_seq"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// New builds a fresh account with empty delegate set and zeroed counters.
func New(kid uint64, owner domain.Address, username string, now time.Time) *AccountRecord {
	return &AccountRecord{
		Address:   AddressFor(kid),
		Kid:       kid,
		Owner:     owner,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone deep-copies the record so store callers never alias shared state.
func (a *AccountRecord) Clone() *AccountRecord {
	cp := *a
	cp.Delegates = append([]domain.Address(nil), a.Delegates...)
	if a.PendingIntent != nil {
		intent := *a.PendingIntent
		cp.PendingIntent = &intent
	}
	return &cp
}

// HasDelegate reports whether addr is in the delegate set.
func (a *AccountRecord) HasDelegate(addr domain.Address) bool {
	for _, d := range a.Delegates {
		if d == addr {
			return true
		}
	}
	return false
}

// AppendDelegate adds addr to the set, preserving the no-duplicates invariant.
func (a *AccountRecord) AppendDelegate(addr domain.Address, now time.Time) error {
	if a.HasDelegate(addr) {
		return dErrors.New(dErrors.CodeInvariantViolation, "delegate already in set")
	}
	a.Delegates = append(a.Delegates, addr)
	a.UpdatedAt = now
	return nil
}

// RemoveDelegate drops addr from the set.
func (a *AccountRecord) RemoveDelegate(addr domain.Address, now time.Time) error {
	for i, d := range a.Delegates {
		if d == addr {
			a.Delegates = append(a.Delegates[:i], a.Delegates[i+1:]...)
			a.UpdatedAt = now
			return nil
		}
	}
	return dErrors.New(dErrors.CodeInvariantViolation, "delegate not in set")
}

// SetPendingIntent records a delegation proposal, silently replacing any
// outstanding one. Only the latest proposal matters.
func (a *AccountRecord) SetPendingIntent(addr domain.Address, now time.Time) {
	a.PendingIntent = &addr
	a.UpdatedAt = now
}

// ClearPendingIntent drops the outstanding proposal.
func (a *AccountRecord) ClearPendingIntent(now time.Time) {
	a.PendingIntent = nil
	a.UpdatedAt = now
}

// PendingIntentIs reports whether addr exactly matches the pending proposal.
func (a *AccountRecord) PendingIntentIs(addr domain.Address) bool {
	return a.PendingIntent != nil && *a.PendingIntent == addr
}

// Summary is the non-failing probe view: zero-valued when no account exists.
type Summary struct {
	Kid       uint64           `json:"kid"`
	Delegates []domain.Address `json:"delegates"`
}

// ProfileUpdate carries the event-sourced profile fields. They are never
// persisted; the latest ProfileUpdated event is the current state.
type ProfileUpdate struct {
	Pfp         string `json:"pfp"`
	Bio         string `json:"bio"`
	DisplayName string `json:"display_name"`
}
