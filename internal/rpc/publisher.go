package rpc

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/registry"
)

var _ registry.EventSink = (*Publisher)(nil)

// Publisher fans registry events out to WebSocket subscribers. It
// implements registry.EventSink so the registry stays unaware of the
// transport.
type Publisher struct {
	manager *SubscriptionManager
}

func NewPublisher(manager *SubscriptionManager) *Publisher {
	return &Publisher{manager: manager}
}

func (p *Publisher) publish(stream SubscriptionType, event interface{}, accounts []string) {
	if p.manager == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", stream, err)
		return
	}
	p.manager.BroadcastToStream(stream, data)
	if len(accounts) > 0 {
		p.manager.BroadcastToAccounts(data, accounts)
	}
}

func (p *Publisher) AuctionCreated(id uuid.UUID, seller types.AccountID, initialPrice types.Amount, height types.BlockHeight) {
	event := NewAuctionCreatedEvent(id.String(), seller.String(), initialPrice, height)
	p.publish(SubAuctions, event, []string{seller.String()})
}

func (p *Publisher) BidAccepted(id uuid.UUID, bidder types.AccountID, amount types.Amount, height types.BlockHeight) {
	event := NewBidEvent(id.String(), bidder.String(), amount, height)
	p.publish(SubBids, event, []string{bidder.String()})
}

func (p *Publisher) AuctionEnded(id uuid.UUID, winner types.AccountID, price types.Amount, height types.BlockHeight) {
	event := NewAuctionEndedEvent(id.String(), winner.String(), price, height)
	accounts := []string{}
	if !winner.IsZero() {
		accounts = append(accounts, winner.String())
	}
	p.publish(SubAuctions, event, accounts)
}

func (p *Publisher) RefundWithdrawn(id uuid.UUID, account types.AccountID, amount types.Amount) {
	event := NewWithdrawalEvent(id.String(), account.String(), amount)
	p.publish(SubBids, event, []string{account.String()})
}

// PublishBlock announces a chain advance to blocks stream subscribers.
func (p *Publisher) PublishBlock(height types.BlockHeight, closeTime time.Time) {
	p.publish(SubBlocks, NewBlockEvent(height, closeTime), nil)
}

// SubscriberCount reports active subscribers on a stream.
func (p *Publisher) SubscriberCount(stream SubscriptionType) int {
	if p.manager == nil {
		return 0
	}
	return p.manager.SubscriberCount(stream)
}
