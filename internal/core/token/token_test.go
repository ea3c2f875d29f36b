package token

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dutchd/dutchd/internal/core/types"
)

func acct(b byte) types.AccountID {
	var id types.AccountID
	id[0] = b
	return id
}

func TestTransfer(t *testing.T) {
	l := NewLedger()
	alice, bob := acct(1), acct(2)

	l.Mint(alice, 100)
	require.NoError(t, l.Transfer(alice, bob, 40))
	require.Equal(t, types.Amount(60), l.BalanceOf(alice))
	require.Equal(t, types.Amount(40), l.BalanceOf(bob))

	require.ErrorIs(t, l.Transfer(alice, bob, 61), ErrInsufficientBalance)
	require.Equal(t, types.Amount(60), l.BalanceOf(alice))
}

func TestTransferFrom(t *testing.T) {
	l := NewLedger()
	owner, spender, dst := acct(1), acct(2), acct(3)

	l.Mint(owner, 100)
	l.Approve(owner, spender, 50)

	require.NoError(t, l.TransferFrom(spender, owner, dst, 30))
	require.Equal(t, types.Amount(70), l.BalanceOf(owner))
	require.Equal(t, types.Amount(30), l.BalanceOf(dst))
	require.Equal(t, types.Amount(20), l.Allowance(owner, spender))

	require.ErrorIs(t, l.TransferFrom(spender, owner, dst, 21), ErrInsufficientAllowance)
}

func TestTransferFromChecksBeforeMutating(t *testing.T) {
	l := NewLedger()
	owner, spender, dst := acct(1), acct(2), acct(3)

	// Allowance covers the pull but the balance does not.
	l.Mint(owner, 10)
	l.Approve(owner, spender, 50)

	require.ErrorIs(t, l.TransferFrom(spender, owner, dst, 20), ErrInsufficientBalance)
	require.Equal(t, types.Amount(50), l.Allowance(owner, spender))
	require.Equal(t, types.Amount(10), l.BalanceOf(owner))
}

func TestApproveWithNonce(t *testing.T) {
	l := NewLedger()
	owner, spender := acct(1), acct(2)

	require.Equal(t, uint64(0), l.Nonce(owner))
	require.NoError(t, l.ApproveWithNonce(owner, spender, 25, 0))
	require.Equal(t, types.Amount(25), l.Allowance(owner, spender))
	require.Equal(t, uint64(1), l.Nonce(owner))

	// Replaying the consumed nonce fails and changes nothing.
	require.ErrorIs(t, l.ApproveWithNonce(owner, spender, 99, 0), ErrBadNonce)
	require.Equal(t, types.Amount(25), l.Allowance(owner, spender))
	require.Equal(t, uint64(1), l.Nonce(owner))
}
