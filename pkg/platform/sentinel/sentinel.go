package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// so services can translate them into domain errors without knowing whether
// the backing store is the in-memory map or PostgreSQL.
//
//   - ErrNotFound: record does not exist
//   - ErrAlreadyUsed: key already taken (name, principal, delegate address)
//   - ErrInvalidState: record exists but is in the wrong state for the mutation
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
)
