// Package registry hosts the auction instances running on one node. It
// owns instance lookup, the hot-instance cache over the snapshot store,
// and the audit/event fan-out around every operation.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dutchd/dutchd/internal/chain"
	"github.com/dutchd/dutchd/internal/core/asset"
	"github.com/dutchd/dutchd/internal/core/auction"
	"github.com/dutchd/dutchd/internal/core/token"
	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/storage/historydb"
	"github.com/dutchd/dutchd/internal/storage/keyValueDb"
	"github.com/dutchd/dutchd/internal/storage/snapshot"
)

// ErrNotFound is returned for an auction id this node does not host.
var ErrNotFound = errors.New("auction not found")

// defaultCacheSize bounds the hot-instance cache. Evicted instances are
// rebuilt from their latest snapshot on the next call.
const defaultCacheSize = 1024

// EventSink receives notifications after state-changing operations. All
// callbacks run on the operation's goroutine and must not block.
type EventSink interface {
	AuctionCreated(id uuid.UUID, seller types.AccountID, initialPrice types.Amount, height types.BlockHeight)
	BidAccepted(id uuid.UUID, bidder types.AccountID, amount types.Amount, height types.BlockHeight)
	AuctionEnded(id uuid.UUID, winner types.AccountID, price types.Amount, height types.BlockHeight)
	RefundWithdrawn(id uuid.UUID, account types.AccountID, amount types.Amount)
}

// Config wires a registry.
type Config struct {
	Chain    *chain.Chain
	Balances *chain.Balances
	Tokens   *token.Ledger
	Assets   *asset.Registry
	Store    keyValueDb.DB

	// History is optional; nil disables the audit trail.
	History *historydb.DB

	// Events is optional; nil disables notifications.
	Events EventSink

	CacheSize int
}

// Registry manages the node's auction instances.
type Registry struct {
	mu sync.Mutex

	chain    *chain.Chain
	balances *chain.Balances
	tokens   *token.Ledger
	assets   *asset.Registry
	store    *snapshot.Store
	history  *historydb.DB
	events   EventSink

	cache *lru.Cache[uuid.UUID, *auction.Auction]
}

// New creates a registry over the given substrate and store.
func New(cfg Config) (*Registry, error) {
	if cfg.Chain == nil || cfg.Store == nil {
		return nil, errors.New("registry requires a chain and a store")
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[uuid.UUID, *auction.Auction](size)
	if err != nil {
		return nil, err
	}

	return &Registry{
		chain:    cfg.Chain,
		balances: cfg.Balances,
		tokens:   cfg.Tokens,
		assets:   cfg.Assets,
		store:    snapshot.NewStore(cfg.Store, &snapshot.LZ4Compressor{}),
		history:  cfg.History,
		events:   cfg.Events,
		cache:    cache,
	}, nil
}

// CreateRequest describes a new auction.
type CreateRequest struct {
	Params       auction.Params
	PaymentToken types.AccountID
	AssetID      uint64
}

// Create opens a new auction starting at the current height and persists
// its initial snapshot.
func (r *Registry) Create(ctx context.Context, req CreateRequest) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	env := r.chain.Context()

	a, err := auction.New(auction.Config{
		ID:           id,
		Params:       req.Params,
		StartBlock:   env.Height,
		PaymentToken: req.PaymentToken,
		NetworkID:    env.NetworkID,
		AssetID:      req.AssetID,
		Balances:     r.balances,
		Tokens:       r.tokens,
		Assets:       r.assets,
	})
	if err != nil {
		return uuid.Nil, err
	}

	if err := r.store.Put(ctx, id, a.Snapshot()); err != nil {
		return uuid.Nil, fmt.Errorf("persist auction %s: %w", id, err)
	}
	r.cache.Add(id, a)

	if r.events != nil {
		r.events.AuctionCreated(id, req.Params.Seller, req.Params.InitialPrice(), env.Height)
	}
	return id, nil
}

// Get returns the instance for id, loading it from the snapshot store if
// it fell out of the cache.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(ctx, id)
}

func (r *Registry) get(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	if a, ok := r.cache.Get(id); ok {
		return a, nil
	}

	snap, err := r.store.Get(ctx, id)
	if errors.Is(err, keyValueDb.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a, err := auction.Restore(auction.Config{
		ID:        id,
		NetworkID: r.chain.NetworkID(),
		Balances:  r.balances,
		Tokens:    r.tokens,
		Assets:    r.assets,
	}, snap)
	if err != nil {
		return nil, err
	}
	r.cache.Add(id, a)
	return a, nil
}

// List returns every auction id this node hosts.
func (r *Registry) List(ctx context.Context) ([]uuid.UUID, error) {
	return r.store.List(ctx)
}

// SubmitBid routes a bid to its instance, persists the outcome, and
// records the audit trail.
func (r *Registry) SubmitBid(ctx context.Context, id uuid.UUID, op auction.BidOp) (auction.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.get(ctx, id)
	if err != nil {
		return auction.TerNO_AUCTION, err
	}

	env := r.chain.Context()
	wasEnded := a.Ended()
	result := a.SubmitBid(op, env)

	if result.IsApplied() {
		if err := r.store.Put(ctx, id, a.Snapshot()); err != nil {
			return result, fmt.Errorf("persist auction %s: %w", id, err)
		}
	}
	r.recordBid(ctx, id, op, env, result)

	if result.IsSuccess() && r.events != nil {
		r.events.BidAccepted(id, op.Bidder, op.Amount, env.Height)
	}
	if !wasEnded && a.Ended() {
		r.settled(ctx, id, a, env)
	}
	return result, nil
}

// Withdraw routes a refund withdrawal to its instance.
func (r *Registry) Withdraw(ctx context.Context, id uuid.UUID, caller types.AccountID) (auction.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.get(ctx, id)
	if err != nil {
		return auction.TerNO_AUCTION, err
	}

	amount := a.Refund(caller)
	result := a.Withdraw(caller)

	if result.IsSuccess() {
		if err := r.store.Put(ctx, id, a.Snapshot()); err != nil {
			return result, fmt.Errorf("persist auction %s: %w", id, err)
		}
		if r.events != nil {
			r.events.RefundWithdrawn(id, caller, amount)
		}
	}
	return result, nil
}

// EndAuction routes an explicit termination to its instance.
func (r *Registry) EndAuction(ctx context.Context, id uuid.UUID, caller types.AccountID) (auction.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.get(ctx, id)
	if err != nil {
		return auction.TerNO_AUCTION, err
	}

	env := r.chain.Context()
	wasEnded := a.Ended()
	result := a.EndAuction(caller, env)

	if result.IsApplied() && !wasEnded && a.Ended() {
		if err := r.store.Put(ctx, id, a.Snapshot()); err != nil {
			return result, fmt.Errorf("persist auction %s: %w", id, err)
		}
		r.settled(ctx, id, a, env)
	}
	return result, nil
}

func (r *Registry) recordBid(ctx context.Context, id uuid.UUID, op auction.BidOp, env chain.Context, result auction.Result) {
	if r.history == nil {
		return
	}
	err := r.history.RecordBid(ctx, historydb.BidRecord{
		AuctionID: id,
		Height:    env.Height,
		Bidder:    op.Bidder,
		Amount:    op.Amount,
		Result:    result.String(),
		At:        time.Now(),
	})
	if err != nil {
		log.Printf("Failed to record bid for auction %s: %v", id, err)
	}
}

func (r *Registry) settled(ctx context.Context, id uuid.UUID, a *auction.Auction, env chain.Context) {
	if r.history != nil {
		err := r.history.RecordSettlement(ctx, historydb.SettlementRecord{
			AuctionID: id,
			Winner:    a.HighestBidder(),
			Price:     a.SettledPrice(),
			EndedAt:   env.Height,
			At:        time.Now(),
		})
		if err != nil {
			log.Printf("Failed to record settlement for auction %s: %v", id, err)
		}
	}
	if r.events != nil {
		r.events.AuctionEnded(id, a.HighestBidder(), a.SettledPrice(), env.Height)
	}
}
