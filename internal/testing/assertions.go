package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dutchd/dutchd/internal/core/auction"
	"github.com/dutchd/dutchd/internal/core/types"
)

// RequireSuccess asserts that an operation was applied cleanly.
func RequireSuccess(t *testing.T, result auction.Result) {
	t.Helper()
	require.Equal(t, auction.TesSUCCESS, result,
		"Expected tesSUCCESS, got %s: %s", result, result.Message())
}

// RequireResult asserts a specific engine result.
func RequireResult(t *testing.T, expected, actual auction.Result) {
	t.Helper()
	require.Equal(t, expected, actual,
		"Expected %s, got %s: %s", expected, actual, actual.Message())
}

// RequireRejected asserts a tec result: persisted but not applied as
// requested.
func RequireRejected(t *testing.T, result auction.Result, expected auction.Result) {
	t.Helper()
	require.True(t, result.IsApplied(), "Expected a persisted rejection, got %s", result)
	require.Equal(t, expected, result,
		"Expected %s, got %s: %s", expected, result, result.Message())
}

// RequireBalance asserts an account's native balance in base units.
func RequireBalance(t *testing.T, env *Env, acc *Account, expected types.Amount) {
	t.Helper()
	actual := env.Balances.BalanceOf(acc.ID)
	require.Equal(t, expected, actual,
		"Account %s balance mismatch: expected %d, got %d", acc.Name, expected, actual)
}

// RequireTokenBalance asserts an account's token balance.
func RequireTokenBalance(t *testing.T, env *Env, acc *Account, expected types.Amount) {
	t.Helper()
	actual := env.Tokens.BalanceOf(acc.ID)
	require.Equal(t, expected, actual,
		"Account %s token balance mismatch: expected %d, got %d", acc.Name, expected, actual)
}

// RequireAssetOwner asserts who holds an asset.
func RequireAssetOwner(t *testing.T, env *Env, assetID uint64, acc *Account) {
	t.Helper()
	owner, err := env.Assets.OwnerOf(assetID)
	require.NoError(t, err)
	require.Equal(t, acc.ID, owner,
		"Asset %d owner mismatch: expected %s, got %s", assetID, acc.Name, owner)
}
