package auction

import (
	"github.com/dutchd/dutchd/internal/chain"
	"github.com/dutchd/dutchd/internal/core/token"
	"github.com/dutchd/dutchd/internal/core/types"
)

// PaymentBackend moves bid funds between bidder accounts and the auction's
// escrow account. Cover is the pre-check the engine runs before mutating
// anything; under the substrate's serialized execution a covered Pull
// cannot fail.
type PaymentBackend interface {
	Cover(from types.AccountID, amount types.Amount) bool
	Pull(from types.AccountID, amount types.Amount) error
	Push(to types.AccountID, amount types.Amount) error
}

// NativeBackend escrows native-currency bids.
type NativeBackend struct {
	balances *chain.Balances
	escrow   types.AccountID
}

// NewNativeBackend creates a backend escrowing into the given instance
// account.
func NewNativeBackend(balances *chain.Balances, escrow types.AccountID) *NativeBackend {
	return &NativeBackend{balances: balances, escrow: escrow}
}

func (b *NativeBackend) Cover(from types.AccountID, amount types.Amount) bool {
	return b.balances.BalanceOf(from) >= amount
}

func (b *NativeBackend) Pull(from types.AccountID, amount types.Amount) error {
	return b.balances.Transfer(from, b.escrow, amount)
}

func (b *NativeBackend) Push(to types.AccountID, amount types.Amount) error {
	return b.balances.Transfer(b.escrow, to, amount)
}

// TokenBackend escrows fungible-token bids pulled on a prior allowance or
// a just-consumed permit.
type TokenBackend struct {
	ledger *token.Ledger
	escrow types.AccountID
}

// NewTokenBackend creates a backend escrowing into the given instance
// account.
func NewTokenBackend(ledger *token.Ledger, escrow types.AccountID) *TokenBackend {
	return &TokenBackend{ledger: ledger, escrow: escrow}
}

// Cover checks balance and standing allowance.
func (b *TokenBackend) Cover(from types.AccountID, amount types.Amount) bool {
	return b.ledger.BalanceOf(from) >= amount && b.ledger.Allowance(from, b.escrow) >= amount
}

// CoverWithPermit checks balance only; the allowance arrives with the
// permit in the same call.
func (b *TokenBackend) CoverWithPermit(from types.AccountID, amount types.Amount) bool {
	return b.ledger.BalanceOf(from) >= amount
}

// Nonce returns the owner's current permit nonce.
func (b *TokenBackend) Nonce(owner types.AccountID) uint64 {
	return b.ledger.Nonce(owner)
}

// GrantPermit installs the permit's allowance, consuming the nonce.
func (b *TokenBackend) GrantPermit(owner types.AccountID, value types.Amount, nonce uint64) error {
	return b.ledger.ApproveWithNonce(owner, b.escrow, value, nonce)
}

func (b *TokenBackend) Pull(from types.AccountID, amount types.Amount) error {
	return b.ledger.TransferFrom(b.escrow, from, b.escrow, amount)
}

func (b *TokenBackend) Push(to types.AccountID, amount types.Amount) error {
	return b.ledger.Transfer(b.escrow, to, amount)
}
