package auction

import (
	"math/bits"

	"github.com/dutchd/dutchd/internal/core/types"
)

// Params are the immutable parameters fixed at auction creation. They are
// validated once, at create time, and never change afterwards.
type Params struct {
	// Seller receives the winning payment and is the only account allowed
	// to end the auction early.
	Seller types.AccountID

	// ReservePrice is the floor the price decays to. Zero is allowed.
	ReservePrice types.Amount

	// NumBlocksOpen is how many blocks the auction accepts bids for,
	// counted from the creation block. Must be at least 1.
	NumBlocksOpen types.BlockHeight

	// OfferPriceDecrement is subtracted from the price each elapsed block.
	OfferPriceDecrement types.Amount
}

// Validate performs static checks that need no chain state.
func (p Params) Validate() Result {
	if p.Seller.IsZero() {
		return TemBAD_ACCOUNT
	}
	if p.NumBlocksOpen == 0 {
		return TemBAD_DURATION
	}
	if _, overflow := p.initialPrice(); overflow {
		return TemBAD_PRICE
	}
	return TesSUCCESS
}

// InitialPrice is the price at the creation block:
// reservePrice + numBlocksAuctionOpen * offerPriceDecrement.
// Params that overflow this sum never pass Validate.
func (p Params) InitialPrice() types.Amount {
	price, _ := p.initialPrice()
	return price
}

func (p Params) initialPrice() (types.Amount, bool) {
	hi, decay := bits.Mul64(p.NumBlocksOpen, p.OfferPriceDecrement)
	if hi != 0 {
		return 0, true
	}
	price, carry := bits.Add64(p.ReservePrice, decay, 0)
	if carry != 0 {
		return 0, true
	}
	return price, false
}
