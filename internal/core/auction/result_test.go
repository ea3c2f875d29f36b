package auction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultBands(t *testing.T) {
	require.True(t, TesSUCCESS.IsSuccess())
	require.True(t, TesSUCCESS.IsApplied())

	require.True(t, TecBID_TOO_LOW.IsTec())
	require.True(t, TecBID_TOO_LOW.IsApplied())
	require.False(t, TecBID_TOO_LOW.IsSuccess())

	require.True(t, TemBAD_AMOUNT.IsTem())
	require.False(t, TemBAD_AMOUNT.IsApplied())

	require.True(t, TefBAD_SIGNATURE.IsTef())
	require.True(t, TerNO_AUCTION.IsTer())
	require.True(t, TerNO_AUCTION.ShouldRetry())
}

func TestResultStrings(t *testing.T) {
	require.Equal(t, "tesSUCCESS", TesSUCCESS.String())
	require.Equal(t, "tecBID_TOO_LOW", TecBID_TOO_LOW.String())
	require.Equal(t, "unknownResult(12345)", Result(12345).String())
}
