// Package testing provides a self-contained auction environment for
// exercising the engine end to end: named funded accounts, a manually
// advanced chain, and helpers that submit operations through the
// registry exactly as the RPC layer does.
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dutchd/dutchd/internal/chain"
	"github.com/dutchd/dutchd/internal/core/asset"
	"github.com/dutchd/dutchd/internal/core/auction"
	"github.com/dutchd/dutchd/internal/core/permit"
	"github.com/dutchd/dutchd/internal/core/token"
	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/registry"
	"github.com/dutchd/dutchd/internal/storage/keyValueDb/memory"
)

// Unit is the amount scale used by the test environment, in base units.
// It is a tenth of a whole display token so that 100*Unit fits in uint64.
const Unit = 100_000_000_000_000_000

// Env is a complete in-memory auction environment bound to a test.
type Env struct {
	t *testing.T

	Chain    *chain.Chain
	Balances *chain.Balances
	Tokens   *token.Ledger
	Assets   *asset.Registry
	Registry *registry.Registry

	accounts map[string]*Account

	// BlockTime is the wall-clock step applied per advanced block.
	BlockTime time.Duration
}

// NewEnv creates an environment on network 1 with an in-memory store.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	c := chain.New(1, time.Unix(1_700_000_000, 0))
	balances := chain.NewBalances()
	tokens := token.NewLedger()
	assets := asset.NewRegistry()

	reg, err := registry.New(registry.Config{
		Chain:    c,
		Balances: balances,
		Tokens:   tokens,
		Assets:   assets,
		Store:    memory.New(),
	})
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	return &Env{
		t:         t,
		Chain:     c,
		Balances:  balances,
		Tokens:    tokens,
		Assets:    assets,
		Registry:  reg,
		accounts:  make(map[string]*Account),
		BlockTime: 4 * time.Second,
	}
}

// Account returns the named account, creating and registering it on
// first use. Accounts are key-backed so they can sign permits.
func (e *Env) Account(name string) *Account {
	e.t.Helper()

	if acc, ok := e.accounts[name]; ok {
		return acc
	}
	acc := NewAccount(e.t, name)
	e.accounts[name] = acc
	return acc
}

// Fund credits native balance to the given accounts, 100 units each.
func (e *Env) Fund(accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		e.FundAmount(acc, 100*Unit)
	}
}

// FundAmount credits a specific native amount.
func (e *Env) FundAmount(acc *Account, amount types.Amount) {
	e.t.Helper()
	e.Balances.Credit(acc.ID, amount)
}

// FundToken mints token balance instead of native funds.
func (e *Env) FundToken(acc *Account, amount types.Amount) {
	e.t.Helper()
	e.Tokens.Mint(acc.ID, amount)
}

// MintAsset mints an asset to the owner and returns its id.
func (e *Env) MintAsset(id uint64, owner *Account) uint64 {
	e.t.Helper()
	if err := e.Assets.Mint(id, owner.ID); err != nil {
		e.t.Fatalf("Failed to mint asset %d: %v", id, err)
	}
	return id
}

// Advance moves the chain forward n blocks.
func (e *Env) Advance(n types.BlockHeight) {
	e.Chain.Advance(n, e.BlockTime)
}

// CreateAuction opens a native-payment auction for the seller.
func (e *Env) CreateAuction(seller *Account, params auction.Params, assetID uint64) uuid.UUID {
	e.t.Helper()

	params.Seller = seller.ID
	id, err := e.Registry.Create(context.Background(), registry.CreateRequest{
		Params:  params,
		AssetID: assetID,
	})
	if err != nil {
		e.t.Fatalf("Failed to create auction: %v", err)
	}
	return id
}

// CreateTokenAuction opens a token-payment auction for the seller.
func (e *Env) CreateTokenAuction(seller *Account, params auction.Params, paymentToken types.AccountID, assetID uint64) uuid.UUID {
	e.t.Helper()

	params.Seller = seller.ID
	id, err := e.Registry.Create(context.Background(), registry.CreateRequest{
		Params:       params,
		PaymentToken: paymentToken,
		AssetID:      assetID,
	})
	if err != nil {
		e.t.Fatalf("Failed to create token auction: %v", err)
	}
	return id
}

// Bid submits a plain bid and returns the engine result.
func (e *Env) Bid(id uuid.UUID, bidder *Account, amount types.Amount) auction.Result {
	e.t.Helper()

	result, err := e.Registry.SubmitBid(context.Background(), id, auction.BidOp{
		Bidder: bidder.ID,
		Amount: amount,
	})
	if err != nil {
		e.t.Fatalf("Failed to submit bid: %v", err)
	}
	return result
}

// BidWithPermit signs a permit over the bid amount and submits both.
func (e *Env) BidWithPermit(id uuid.UUID, bidder *Account, amount types.Amount, deadline time.Time) auction.Result {
	e.t.Helper()

	a, err := e.Registry.Get(context.Background(), id)
	if err != nil {
		e.t.Fatalf("Failed to load auction: %v", err)
	}
	p := &permit.Permit{
		Owner:    bidder.ID,
		Spender:  a.Instance(),
		Value:    amount,
		Nonce:    e.Tokens.Nonce(bidder.ID),
		Deadline: deadline,
	}
	a.Verifier().Sign(p, bidder.Keypair)

	result, err := e.Registry.SubmitBid(context.Background(), id, auction.BidOp{
		Bidder: bidder.ID,
		Amount: amount,
		Permit: p,
	})
	if err != nil {
		e.t.Fatalf("Failed to submit token bid: %v", err)
	}
	return result
}

// Withdraw pulls the caller's refund.
func (e *Env) Withdraw(id uuid.UUID, caller *Account) auction.Result {
	e.t.Helper()

	result, err := e.Registry.Withdraw(context.Background(), id, caller.ID)
	if err != nil {
		e.t.Fatalf("Failed to withdraw: %v", err)
	}
	return result
}

// End submits an endAuction call on the caller's authority.
func (e *Env) End(id uuid.UUID, caller *Account) auction.Result {
	e.t.Helper()

	result, err := e.Registry.EndAuction(context.Background(), id, caller.ID)
	if err != nil {
		e.t.Fatalf("Failed to end auction: %v", err)
	}
	return result
}

// Auction loads the live instance for direct state inspection.
func (e *Env) Auction(id uuid.UUID) *auction.Auction {
	e.t.Helper()

	a, err := e.Registry.Get(context.Background(), id)
	if err != nil {
		e.t.Fatalf("Failed to load auction: %v", err)
	}
	return a
}
