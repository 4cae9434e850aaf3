package models

import (
	"time"

	"nameplate/pkg/domain"
	dErrors "nameplate/pkg/domain-errors"
)

// Namespaces for deterministic address derivation. TokenAddressOf must stay a
// pure function of the name so external readers can verify ownership without
// a registry scan.
const (
	NamespaceRegistry = "nameplate:username-registry"
	NamespaceToken    = "nameplate:username-token"
)

// CustodialAddress is the registry's own address. A record owned by it is
// reclaimed: claimable again, invisible to IsClaimed.
var CustodialAddress = domain.Derive(NamespaceRegistry, "custodian")

// Named failures of the username registry.
var (
	ErrInvalidName    = dErrors.New(dErrors.CodeValidation, "invalid username")
	ErrAlreadyClaimed = dErrors.New(dErrors.CodeConflict, "username already claimed")
	ErrNotPermitted   = dErrors.New(dErrors.CodeForbidden, "caller not permitted")
)

// MaxNameLen is the exclusive upper bound on username byte length.
const MaxNameLen = 32

// UsernameRecord is the ownership token for one name. Once minted it is never
// deleted; reclaim and re-claim only reassign Owner. Owner is mutated solely
// through the registry service's Reclaim and Claim paths; no other component
// writes it.
type UsernameRecord struct {
	Name         string         `json:"name"`
	Owner        domain.Address `json:"owner"`
	TokenAddress domain.Address `json:"token_address"`
	Reclaimed    bool           `json:"reclaimed"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TokenAddressOf derives the ownership-token address for a name. Pure: no
// storage access, identical across claim states.
func TokenAddressOf(name string) domain.Address {
	return domain.Derive(NamespaceToken, name)
}

// ValidateName applies the strict validator: 1–31 bytes, lowercase ASCII
// letters, digits, and underscore only. Uppercase, whitespace, control
// characters, and punctuation are all rejected.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) >= MaxNameLen {
		return ErrInvalidName
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return ErrInvalidName
		}
	}
	return nil
}

// New validates the name and mints a fresh record.
func New(name string, owner domain.Address, now time.Time) (*UsernameRecord, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return &UsernameRecord{
		Name:         name,
		Owner:        owner,
		TokenAddress: TokenAddressOf(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Reassign hands the record to a new owner. Used by the re-claim path, which
// deliberately skips name validation.
func (r *UsernameRecord) Reassign(owner domain.Address, now time.Time) {
	r.Owner = owner
	r.Reclaimed = false
	r.UpdatedAt = now
}

// ReturnToCustody reassigns the record to the registry's custodial address.
func (r *UsernameRecord) ReturnToCustody(now time.Time) {
	r.Owner = CustodialAddress
	r.Reclaimed = true
	r.UpdatedAt = now
}

// Live reports whether the record has a non-reclaimed owner.
func (r *UsernameRecord) Live() bool {
	return !r.Reclaimed
}
