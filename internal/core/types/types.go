// Package types holds the small value types shared across the engine:
// account identifiers, amounts, and block heights.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AccountIDSize is the size of an account identifier in bytes.
const AccountIDSize = 20

// AccountID is a 160-bit account identifier, derived from a public key as
// RIPEMD160(SHA256(pubkey)). The zero value is the "none" identity: no
// account can own it because no public key hashes to all zeros in practice,
// and the engine uses it as the initial highest bidder.
type AccountID [AccountIDSize]byte

// ZeroAccount is the "none" identity.
var ZeroAccount AccountID

// ErrBadAccountID is returned when parsing a malformed account string.
var ErrBadAccountID = errors.New("invalid account id")

// IsZero reports whether the account is the "none" identity.
func (a AccountID) IsZero() bool {
	return a == ZeroAccount
}

// String renders the account as 0x-prefixed lowercase hex.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the raw identifier.
func (a AccountID) Bytes() []byte {
	b := make([]byte, AccountIDSize)
	copy(b, a[:])
	return b
}

// ParseAccountID parses a 0x-prefixed (or bare) 40-character hex account id.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s) != AccountIDSize*2 {
		return id, fmt.Errorf("%w: want %d hex chars, got %d", ErrBadAccountID, AccountIDSize*2, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrBadAccountID, err)
	}
	copy(id[:], raw)
	return id, nil
}

// AccountIDFromBytes creates an account ID from a byte slice.
// Returns the zero account if the slice is not exactly 20 bytes.
func AccountIDFromBytes(b []byte) AccountID {
	var id AccountID
	if len(b) == AccountIDSize {
		copy(id[:], b)
	}
	return id
}

// Amount is a quantity of value in indivisible base units. Both the native
// currency and fungible tokens use the same unit type; an auction instance
// deals in exactly one of the two.
type Amount = uint64

// BlockHeight counts progress units ("blocks") on the hosting chain. It is
// the auction's only clock for price decay and expiry.
type BlockHeight = uint64
