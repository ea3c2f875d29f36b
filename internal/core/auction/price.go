package auction

import "github.com/dutchd/dutchd/internal/core/types"

// PriceAt returns the asking price at the given block height for an auction
// created at startBlock. The price starts at InitialPrice and loses one
// decrement per elapsed block until it reaches the reserve; it never goes
// below the reserve, and heights past the open window keep returning the
// reserve. Heights before startBlock are treated as startBlock.
//
// The clamp on elapsed blocks makes the subtraction safe: the decay can
// never exceed NumBlocksOpen * OfferPriceDecrement, which InitialPrice
// includes by construction.
func (p Params) PriceAt(startBlock, height types.BlockHeight) types.Amount {
	var elapsed types.BlockHeight
	if height > startBlock {
		elapsed = height - startBlock
	}
	if elapsed > p.NumBlocksOpen {
		elapsed = p.NumBlocksOpen
	}
	return p.InitialPrice() - elapsed*p.OfferPriceDecrement
}

// ExpiresAt returns the first block height at which the auction no longer
// accepts bids on time alone.
func (p Params) ExpiresAt(startBlock types.BlockHeight) types.BlockHeight {
	return startBlock + p.NumBlocksOpen
}
