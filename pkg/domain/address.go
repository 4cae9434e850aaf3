// Package domain holds the address type shared by every module. Addresses
// are opaque 32-byte identities rendered as lowercase hex; object addresses
// are derived deterministically from a namespace and its identifying parts.
package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// AddressLen is the hex-encoded length of an address.
const AddressLen = 64

// Address identifies a principal, account object, delegate key, or token.
type Address string

func (a Address) String() string { return string(a) }

func (a Address) IsZero() bool { return a == "" }

// ParseAddress validates s as a lowercase hex address.
func ParseAddress(s string) (Address, error) {
	if len(s) != AddressLen {
		return "", fmt.Errorf("address must be %d hex characters, got %d", AddressLen, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("address contains invalid character %q", c)
		}
	}
	return Address(s), nil
}

// Derive computes the deterministic address for an object: a blake3 hash of
// the namespace and its parts, NUL-separated so part boundaries cannot
// collide.
func Derive(namespace string, parts ...string) Address {
	h := blake3.New()
	_, _ = h.Write([]byte(namespace))
	for _, p := range parts {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(p))
	}
	sum := h.Sum(nil)
	return Address(hex.EncodeToString(sum[:32]))
}
