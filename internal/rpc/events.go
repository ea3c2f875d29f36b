package rpc

import (
	"time"
)

// AuctionCreatedEvent is sent to auctions stream subscribers when a new
// auction opens.
type AuctionCreatedEvent struct {
	Type         string `json:"type"` // Always "auctionCreated"
	AuctionID    string `json:"auction_id"`
	Seller       string `json:"seller"`
	InitialPrice uint64 `json:"initial_price"`
	BlockHeight  uint64 `json:"block_height"`
}

func NewAuctionCreatedEvent(auctionID, seller string, initialPrice, height uint64) *AuctionCreatedEvent {
	return &AuctionCreatedEvent{
		Type:         "auctionCreated",
		AuctionID:    auctionID,
		Seller:       seller,
		InitialPrice: initialPrice,
		BlockHeight:  height,
	}
}

// BidEvent is sent to bids stream subscribers when a bid takes the lead.
type BidEvent struct {
	Type        string `json:"type"` // Always "bidAccepted"
	AuctionID   string `json:"auction_id"`
	Bidder      string `json:"bidder"`
	Amount      uint64 `json:"amount"`
	BlockHeight uint64 `json:"block_height"`
}

func NewBidEvent(auctionID, bidder string, amount, height uint64) *BidEvent {
	return &BidEvent{
		Type:        "bidAccepted",
		AuctionID:   auctionID,
		Bidder:      bidder,
		Amount:      amount,
		BlockHeight: height,
	}
}

// AuctionEndedEvent is sent to auctions stream subscribers on settlement.
// Winner is the zero account when the auction closed without a bid.
type AuctionEndedEvent struct {
	Type         string `json:"type"` // Always "auctionEnded"
	AuctionID    string `json:"auction_id"`
	Winner       string `json:"winner"`
	SettledPrice uint64 `json:"settled_price"`
	BlockHeight  uint64 `json:"block_height"`
}

func NewAuctionEndedEvent(auctionID, winner string, price, height uint64) *AuctionEndedEvent {
	return &AuctionEndedEvent{
		Type:         "auctionEnded",
		AuctionID:    auctionID,
		Winner:       winner,
		SettledPrice: price,
		BlockHeight:  height,
	}
}

// WithdrawalEvent is sent to bids stream subscribers when an outbid
// participant pulls their refund.
type WithdrawalEvent struct {
	Type      string `json:"type"` // Always "refundWithdrawn"
	AuctionID string `json:"auction_id"`
	Account   string `json:"account"`
	Amount    uint64 `json:"amount"`
}

func NewWithdrawalEvent(auctionID, account string, amount uint64) *WithdrawalEvent {
	return &WithdrawalEvent{
		Type:      "refundWithdrawn",
		AuctionID: auctionID,
		Account:   account,
		Amount:    amount,
	}
}

// BlockEvent is sent to blocks stream subscribers each time the chain
// advances.
type BlockEvent struct {
	Type        string `json:"type"` // Always "blockAdvanced"
	BlockHeight uint64 `json:"block_height"`
	CloseTime   string `json:"close_time"`
}

func NewBlockEvent(height uint64, closeTime time.Time) *BlockEvent {
	return &BlockEvent{
		Type:        "blockAdvanced",
		BlockHeight: height,
		CloseTime:   closeTime.UTC().Format(time.RFC3339),
	}
}
