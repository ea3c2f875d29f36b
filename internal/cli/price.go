package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dutchd/dutchd/internal/core/auction"
	"github.com/dutchd/dutchd/internal/core/types"
)

var (
	priceReserve   string
	priceDecrement string
	priceBlocks    uint64
)

// priceCmd renders the full descending price schedule for a set of auction
// parameters without talking to a node. Amounts are given and printed at the
// display scale.
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Print the price schedule for auction parameters",
	Long: `Print the block-by-block asking price an auction with the given
reserve, duration and decrement would follow, from its initial price down to
the reserve floor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reserve, err := parseDisplayAmount(priceReserve)
		if err != nil {
			return fmt.Errorf("invalid reserve: %w", err)
		}
		dec, err := parseDisplayAmount(priceDecrement)
		if err != nil {
			return fmt.Errorf("invalid decrement: %w", err)
		}

		// The seller is irrelevant to the curve; a placeholder lets
		// Validate check the duration and the price range.
		params := auction.Params{
			Seller:              types.AccountID{1},
			ReservePrice:        reserve,
			NumBlocksOpen:       priceBlocks,
			OfferPriceDecrement: dec,
		}
		if r := params.Validate(); r != auction.TesSUCCESS {
			return fmt.Errorf("invalid parameters: %s", r.Message())
		}

		fmt.Printf("block  price\n")
		for offset := uint64(0); offset <= priceBlocks; offset++ {
			fmt.Printf("%5d  %s\n", offset, formatBaseUnits(params.PriceAt(0, offset)))
		}
		fmt.Printf("\nfloor %s from block %d onward\n", formatBaseUnits(reserve), priceBlocks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().StringVar(&priceReserve, "reserve", "0", "reserve price")
	priceCmd.Flags().StringVar(&priceDecrement, "decrement", "0", "price decrement per block")
	priceCmd.Flags().Uint64Var(&priceBlocks, "blocks", 1, "blocks the auction stays open")
}

// parseDisplayAmount converts a display-scale decimal string into base units.
func parseDisplayAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	base := d.Shift(tokenDecimals)
	if base.IsNegative() || !base.IsInteger() {
		return 0, fmt.Errorf("amount %s is not a whole number of base units", s)
	}
	n := base.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %s exceeds the supported range", s)
	}
	return n.Uint64(), nil
}

// formatBaseUnits renders an exact base-unit amount at the display scale.
func formatBaseUnits(v uint64) string {
	return decimal.NewFromUint64(v).Shift(-tokenDecimals).String()
}
