// Package token implements the fungible-token collaborator the settlement
// engine pulls bid payments from: per-account balances, spender allowances,
// and the per-owner permit nonces that make signed approvals single-use.
package token

import (
	"errors"
	"sync"

	"github.com/dutchd/dutchd/internal/core/types"
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the
	// sender's balance.
	ErrInsufficientBalance = errors.New("insufficient token balance")
	// ErrInsufficientAllowance is returned when a delegated transfer
	// exceeds the spender's allowance.
	ErrInsufficientAllowance = errors.New("insufficient token allowance")
	// ErrBadNonce is returned when a permit's nonce is not the owner's
	// current one.
	ErrBadNonce = errors.New("permit nonce mismatch")
)

// Ledger is an in-memory fungible-token ledger. All methods are safe for
// concurrent use.
type Ledger struct {
	mu         sync.Mutex
	balances   map[types.AccountID]types.Amount
	allowances map[types.AccountID]map[types.AccountID]types.Amount
	nonces     map[types.AccountID]uint64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[types.AccountID]types.Amount),
		allowances: make(map[types.AccountID]map[types.AccountID]types.Amount),
		nonces:     make(map[types.AccountID]uint64),
	}
}

// Mint credits newly issued units to an account.
func (l *Ledger) Mint(account types.AccountID, amount types.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// BalanceOf returns the account's balance.
func (l *Ledger) BalanceOf(account types.AccountID) types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

// Allowance returns what spender may still pull from owner.
func (l *Ledger) Allowance(owner, spender types.AccountID) types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender]
}

// Nonce returns the owner's next expected permit nonce.
func (l *Ledger) Nonce(owner types.AccountID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nonces[owner]
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to types.AccountID, amount types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transfer(from, to, amount)
}

func (l *Ledger) transfer(from, to types.AccountID, amount types.Amount) error {
	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Approve sets spender's allowance over owner's funds, replacing any
// previous value.
func (l *Ledger) Approve(owner, spender types.AccountID, amount types.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.approve(owner, spender, amount)
}

func (l *Ledger) approve(owner, spender types.AccountID, amount types.Amount) {
	row := l.allowances[owner]
	if row == nil {
		row = make(map[types.AccountID]types.Amount)
		l.allowances[owner] = row
	}
	row[spender] = amount
}

// TransferFrom moves amount from owner to destination on spender's
// authority, consuming allowance. Balance and allowance are checked before
// either is touched, so a failed pull leaves both untouched.
func (l *Ledger) TransferFrom(spender, owner, to types.AccountID, amount types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[owner][spender] < amount {
		return ErrInsufficientAllowance
	}
	if l.balances[owner] < amount {
		return ErrInsufficientBalance
	}
	l.allowances[owner][spender] -= amount
	l.balances[owner] -= amount
	l.balances[to] += amount
	return nil
}

// ApproveWithNonce sets an allowance on behalf of owner against their
// current nonce, then advances the nonce. This is the state half of permit
// processing; signature checks happen before the ledger is reached.
func (l *Ledger) ApproveWithNonce(owner, spender types.AccountID, amount types.Amount, nonce uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.nonces[owner] != nonce {
		return ErrBadNonce
	}
	l.nonces[owner]++
	l.approve(owner, spender, amount)
	return nil
}
