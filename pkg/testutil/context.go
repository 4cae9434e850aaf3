package testutil

import (
	"context"
	"time"

	"nameplate/pkg/domain"
	"nameplate/pkg/requestcontext"
)

// Context builds a background context carrying a fixed request time so event
// timestamps are deterministic in tests.
func Context(at time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), at)
}

// PrincipalContext builds a context authenticated as the given principal.
func PrincipalContext(principal domain.Address, at time.Time) context.Context {
	return requestcontext.WithPrincipal(Context(at), principal)
}

// AdminContext builds a context carrying the administrative role claim.
func AdminContext(at time.Time) context.Context {
	return requestcontext.WithAdmin(Context(at), true)
}

// TestAddress derives a stable, well-formed address for test fixtures.
func TestAddress(label string) domain.Address {
	return domain.Derive("nameplate:test", label)
}
