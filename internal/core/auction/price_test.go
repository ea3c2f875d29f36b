package auction

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dutchd/dutchd/internal/core/types"
)

// Unit scale for amounts; a tenth of an 18-decimal whole token so that
// multiples up to 20*unit fit in uint64.
const unit = 100_000_000_000_000_000

func TestInitialPrice(t *testing.T) {
	p := Params{
		Seller:              sellerAccount(),
		ReservePrice:        2 * unit,
		NumBlocksOpen:       10,
		OfferPriceDecrement: unit / 2,
	}
	require.Equal(t, TesSUCCESS, p.Validate())
	require.Equal(t, types.Amount(7*unit), p.InitialPrice())
}

func TestPriceDecaysToReserve(t *testing.T) {
	p := Params{
		Seller:              sellerAccount(),
		ReservePrice:        2 * unit,
		NumBlocksOpen:       10,
		OfferPriceDecrement: unit / 2,
	}
	const start = 100

	require.Equal(t, types.Amount(7*unit), p.PriceAt(start, start))
	require.Equal(t, types.Amount(13*unit/2), p.PriceAt(start, start+1))
	require.Equal(t, types.Amount(2*unit), p.PriceAt(start, start+10))

	// Floors at the reserve for every later height.
	require.Equal(t, types.Amount(2*unit), p.PriceAt(start, start+11))
	require.Equal(t, types.Amount(2*unit), p.PriceAt(start, start+1000))
}

func TestPriceMonotone(t *testing.T) {
	p := Params{
		Seller:              sellerAccount(),
		ReservePrice:        300,
		NumBlocksOpen:       37,
		OfferPriceDecrement: 11,
	}
	const start = 5

	prev := p.PriceAt(start, start)
	for h := types.BlockHeight(start + 1); h < start+60; h++ {
		cur := p.PriceAt(start, h)
		require.LessOrEqual(t, cur, prev, "price must never increase")
		require.GreaterOrEqual(t, cur, p.ReservePrice)
		prev = cur
	}
}

func TestPriceBeforeStart(t *testing.T) {
	p := Params{
		Seller:              sellerAccount(),
		ReservePrice:        100,
		NumBlocksOpen:       10,
		OfferPriceDecrement: 5,
	}
	require.Equal(t, p.InitialPrice(), p.PriceAt(50, 10))
}

func TestZeroDecrement(t *testing.T) {
	p := Params{
		Seller:              sellerAccount(),
		ReservePrice:        100,
		NumBlocksOpen:       10,
		OfferPriceDecrement: 0,
	}
	require.Equal(t, TesSUCCESS, p.Validate())
	require.Equal(t, types.Amount(100), p.PriceAt(0, 5))
	require.Equal(t, types.Amount(100), p.PriceAt(0, 500))
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   Result
	}{
		{
			"valid",
			Params{Seller: sellerAccount(), ReservePrice: 100, NumBlocksOpen: 10, OfferPriceDecrement: 1},
			TesSUCCESS,
		},
		{
			"zero reserve allowed",
			Params{Seller: sellerAccount(), NumBlocksOpen: 10, OfferPriceDecrement: 1},
			TesSUCCESS,
		},
		{
			"zero seller",
			Params{ReservePrice: 100, NumBlocksOpen: 10, OfferPriceDecrement: 1},
			TemBAD_ACCOUNT,
		},
		{
			"zero duration",
			Params{Seller: sellerAccount(), ReservePrice: 100, OfferPriceDecrement: 1},
			TemBAD_DURATION,
		},
		{
			"decay overflows",
			Params{Seller: sellerAccount(), ReservePrice: 1, NumBlocksOpen: 1 << 40, OfferPriceDecrement: 1 << 40},
			TemBAD_PRICE,
		},
		{
			"sum overflows",
			Params{Seller: sellerAccount(), ReservePrice: ^types.Amount(0), NumBlocksOpen: 1, OfferPriceDecrement: 1},
			TemBAD_PRICE,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.params.Validate())
		})
	}
}
