package models

import (
	"time"

	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
)

// Named failures of the delegate authorization protocol.
var (
	ErrNotPermitted         = dErrors.New(dErrors.CodeForbidden, "caller not permitted to confirm intent")
	ErrDelegateDoesNotExist = dErrors.New(dErrors.CodeNotFound, "delegate does not exist")
	ErrDelegateExists       = dErrors.New(dErrors.CodeConflict, "delegate already linked to an account")
)

// DelegateRecord binds a delegate address to exactly one owning account. The
// account back-reference is a weak reference: resolution paths must tolerate
// a missing account rather than assume it.
type DelegateRecord struct {
	Address        domain.Address `json:"address"`
	AccountAddress domain.Address `json:"account_address"`
	OwnerPrincipal domain.Address `json:"owner_principal"`
	Kid            uint64         `json:"kid"`
	CreatedAt      time.Time      `json:"created_at"`
}

// New builds a delegate record for the given account.
func New(addr, accountAddress, ownerPrincipal domain.Address, kid uint64, now time.Time) *DelegateRecord {
	return &DelegateRecord{
		Address:        addr,
		AccountAddress: accountAddress,
		OwnerPrincipal: ownerPrincipal,
		Kid:            kid,
		CreatedAt:      now,
	}
}
