package chain

import (
	"errors"
	"sync"

	"github.com/dutchd/dutchd/internal/core/types"
)

// ErrInsufficientBalance is returned when a debit exceeds the account's
// native balance.
var ErrInsufficientBalance = errors.New("insufficient native balance")

// Balances is the native-currency balance table.
type Balances struct {
	mu       sync.Mutex
	balances map[types.AccountID]types.Amount
}

// NewBalances creates an empty balance table.
func NewBalances() *Balances {
	return &Balances{balances: make(map[types.AccountID]types.Amount)}
}

// Credit adds funds to an account.
func (b *Balances) Credit(account types.AccountID, amount types.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amount
}

// BalanceOf returns the account's native balance.
func (b *Balances) BalanceOf(account types.AccountID) types.Amount {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

// Transfer moves native funds between accounts.
func (b *Balances) Transfer(from, to types.AccountID, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.balances[from] < amount {
		return ErrInsufficientBalance
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}
