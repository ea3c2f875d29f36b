// Package auction implements the Dutch auction settlement engine: the
// price curve, the bid ledger with pull-payment refunds, the Open/Ended
// lifecycle, and settlement. Every mutating operation is a single atomic
// state transition; a rejected call leaves no trace beyond any lifecycle
// transition the passage of blocks had already earned.
package auction

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dutchd/dutchd/internal/chain"
	"github.com/dutchd/dutchd/internal/core/asset"
	"github.com/dutchd/dutchd/internal/core/permit"
	"github.com/dutchd/dutchd/internal/core/token"
	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/crypto"
)

// instanceTag namespaces instance account derivation away from key-derived
// accounts.
var instanceTag = []byte("auction-instance:")

// InstanceAccount derives the escrow account that holds bids for the
// auction with the given id.
func InstanceAccount(id uuid.UUID) types.AccountID {
	return crypto.CalcAccountID(append(instanceTag, id[:]...))
}

// Config assembles a new auction instance.
type Config struct {
	ID         uuid.UUID
	Params     Params
	StartBlock types.BlockHeight

	// PaymentToken selects the payment mode. Zero account: native bids
	// against Balances. Otherwise: token bids against Tokens, with permit
	// support bound to NetworkID.
	PaymentToken types.AccountID
	NetworkID    uint32

	// AssetID names the auctioned asset in Assets; 0 sells nothing
	// on-ledger.
	AssetID uint64

	Balances *chain.Balances
	Tokens   *token.Ledger
	Assets   *asset.Registry
}

// Auction is a single auction instance. All operations serialize on the
// instance lock, mirroring the one-call-at-a-time substrate.
type Auction struct {
	mu sync.Mutex

	id           uuid.UUID
	instance     types.AccountID
	params       Params
	startBlock   types.BlockHeight
	paymentToken types.AccountID
	assetID      uint64

	payments PaymentBackend
	tokenPay *TokenBackend
	assets   *asset.Registry
	verifier *permit.Verifier

	ended         bool
	highestBid    types.Amount
	highestBidder types.AccountID
	refunds       map[types.AccountID]types.Amount
	settledPrice  types.Amount
	endedAt       types.BlockHeight
}

func resultError(r Result) error {
	return fmt.Errorf("%s: %s", r, r.Message())
}

// New creates an auction instance and, for an on-ledger sale, escrows the
// asset with the instance account.
func New(cfg Config) (*Auction, error) {
	if r := cfg.Params.Validate(); !r.IsSuccess() {
		return nil, resultError(r)
	}

	a := &Auction{
		id:           cfg.ID,
		instance:     InstanceAccount(cfg.ID),
		params:       cfg.Params,
		startBlock:   cfg.StartBlock,
		paymentToken: cfg.PaymentToken,
		assetID:      cfg.AssetID,
		assets:       cfg.Assets,
		refunds:      make(map[types.AccountID]types.Amount),
	}

	if cfg.PaymentToken.IsZero() {
		if cfg.Balances == nil {
			return nil, errors.New("native payment mode requires a balance table")
		}
		a.payments = NewNativeBackend(cfg.Balances, a.instance)
	} else {
		if cfg.Tokens == nil {
			return nil, errors.New("token payment mode requires a token ledger")
		}
		a.tokenPay = NewTokenBackend(cfg.Tokens, a.instance)
		a.payments = a.tokenPay
		a.verifier = permit.NewVerifier(a.instance, cfg.NetworkID)
	}

	if cfg.AssetID != 0 {
		if cfg.Assets == nil {
			return nil, errors.New("on-ledger sale requires an asset registry")
		}
		if err := cfg.Assets.Transfer(cfg.Params.Seller, a.instance, cfg.AssetID); err != nil {
			return nil, fmt.Errorf("escrow asset %d: %w", cfg.AssetID, err)
		}
	}

	return a, nil
}

// ID returns the auction's identifier.
func (a *Auction) ID() uuid.UUID {
	return a.id
}

// Instance returns the escrow account holding bids for this auction.
func (a *Auction) Instance() types.AccountID {
	return a.instance
}

// Params returns the immutable auction parameters.
func (a *Auction) Params() Params {
	return a.params
}

// StartBlock returns the creation height.
func (a *Auction) StartBlock() types.BlockHeight {
	return a.startBlock
}

// PaymentToken returns the token the auction is denominated in, or the
// zero account for native bids.
func (a *Auction) PaymentToken() types.AccountID {
	return a.paymentToken
}

// AssetID returns the auctioned asset id, 0 for off-ledger sales.
func (a *Auction) AssetID() uint64 {
	return a.assetID
}

// Verifier returns the permit verifier for token-mode auctions, nil
// otherwise.
func (a *Auction) Verifier() *permit.Verifier {
	return a.verifier
}

// CurrentPrice returns the asking price at the given height.
func (a *Auction) CurrentPrice(height types.BlockHeight) types.Amount {
	return a.params.PriceAt(a.startBlock, height)
}

// Ended reads the stored phase flag. It reports false past the time bound
// until some mutating call forces the transition; callers deciding whether
// to submit a closing call rely on exactly this lazy reading.
func (a *Auction) Ended() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ended
}

// HighestBid returns the standing highest bid.
func (a *Auction) HighestBid() types.Amount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBid
}

// HighestBidder returns the standing highest bidder, the zero account if
// no qualifying bid has been accepted.
func (a *Auction) HighestBidder() types.AccountID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highestBidder
}

// Refund returns the account's withdrawable refund balance.
func (a *Auction) Refund(account types.AccountID) types.Amount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refunds[account]
}

// SettledPrice returns the price settlement executed at, 0 while Open.
func (a *Auction) SettledPrice() types.Amount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settledPrice
}

// BidOp is a bid submission.
type BidOp struct {
	Bidder types.AccountID
	Amount types.Amount

	// Permit optionally authorizes the token pull in the same call.
	Permit *permit.Permit
}

// Validate performs static checks that need no auction state.
func (op BidOp) Validate() Result {
	if op.Bidder.IsZero() {
		return TemBAD_ACCOUNT
	}
	if op.Amount == 0 {
		return TemBAD_AMOUNT
	}
	if op.Permit != nil {
		if op.Permit.Owner != op.Bidder {
			return TemBAD_ACCOUNT
		}
		if op.Permit.Value < op.Amount {
			return TemBAD_AMOUNT
		}
	}
	return TesSUCCESS
}

// SubmitBid processes a bid under the given execution context.
//
// The call is all-or-nothing with one deliberate exception: when the time
// bound has already elapsed, the Open to Ended transition the elapsed
// blocks earned is persisted, with settlement, before the bid itself is
// rejected as arriving on a closed auction.
func (a *Auction) SubmitBid(op BidOp, env chain.Context) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r := op.Validate(); !r.IsSuccess() {
		return r
	}

	if a.ended {
		return TecAUCTION_CLOSED
	}
	bound := a.params.ExpiresAt(a.startBlock)
	if env.Height > bound {
		a.close(env.Height)
		return TecAUCTION_CLOSED
	}

	// Ties favor the incumbent.
	if op.Amount < a.params.PriceAt(a.startBlock, env.Height) || op.Amount <= a.highestBid {
		return TecBID_TOO_LOW
	}

	if op.Permit != nil {
		if a.tokenPay == nil {
			return TemINVALID
		}
		if op.Permit.Spender != a.instance {
			return TemBAD_ACCOUNT
		}
		if err := a.verifier.Verify(op.Permit, env.CloseTime); err != nil {
			if errors.Is(err, permit.ErrExpired) {
				return TecPERMIT_EXPIRED
			}
			return TefBAD_SIGNATURE
		}
		if op.Permit.Nonce != a.tokenPay.Nonce(op.Bidder) {
			return TecBAD_NONCE
		}
		if !a.tokenPay.CoverWithPermit(op.Bidder, op.Amount) {
			return TecINSUFFICIENT_FUNDS
		}
	} else if !a.payments.Cover(op.Bidder, op.Amount) {
		return TecINSUFFICIENT_FUNDS
	}

	// Apply. Every precondition is settled; under serialized execution
	// nothing below fails.
	if op.Permit != nil {
		if err := a.tokenPay.GrantPermit(op.Bidder, op.Permit.Value, op.Permit.Nonce); err != nil {
			return TecINTERNAL
		}
	}
	if err := a.payments.Pull(op.Bidder, op.Amount); err != nil {
		return TecINTERNAL
	}

	if !a.highestBidder.IsZero() {
		a.refunds[a.highestBidder] += a.highestBid
	}
	a.highestBid = op.Amount
	a.highestBidder = op.Bidder

	// The bid that reaches the bound closes the auction itself.
	if env.Height >= bound {
		a.close(env.Height)
	}
	return TesSUCCESS
}

// Withdraw pays out the caller's accumulated refund. The ledger entry is
// zeroed before the outward transfer, so a reentrant call observes an
// already-empty balance.
func (a *Auction) Withdraw(caller types.AccountID) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller.IsZero() {
		return TemBAD_ACCOUNT
	}
	amount := a.refunds[caller]
	if amount == 0 {
		return TecNO_REFUND
	}

	delete(a.refunds, caller)
	if err := a.payments.Push(caller, amount); err != nil {
		a.refunds[caller] = amount
		return TecINTERNAL
	}
	return TesSUCCESS
}

// EndAuction closes the auction on the seller's authority and settles. A
// non-seller caller is rejected without any state change, expired or not.
func (a *Auction) EndAuction(caller types.AccountID, env chain.Context) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	if caller != a.params.Seller {
		return TecNOT_OWNER
	}
	if a.ended {
		return TecALREADY_ENDED
	}

	a.close(env.Height)
	return TesSUCCESS
}

// close runs the single Open to Ended transition and settles: the winning
// payment goes to the seller and the asset to the winner, or the asset
// back to the seller when no qualifying bid arrived. The lifecycle gates
// guarantee close runs at most once per instance.
func (a *Auction) close(height types.BlockHeight) {
	a.ended = true
	a.endedAt = height
	a.settledPrice = a.highestBid

	if !a.highestBidder.IsZero() {
		// Escrow holds exactly the standing highest bid.
		_ = a.payments.Push(a.params.Seller, a.highestBid)
		if a.assetID != 0 && a.assets != nil {
			_ = a.assets.Transfer(a.instance, a.highestBidder, a.assetID)
		}
		return
	}
	if a.assetID != 0 && a.assets != nil {
		_ = a.assets.Transfer(a.instance, a.params.Seller, a.assetID)
	}
}

// Snapshot captures the full persistable state of the instance.
func (a *Auction) Snapshot() *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	refunds := make(map[types.AccountID]types.Amount, len(a.refunds))
	for account, amount := range a.refunds {
		refunds[account] = amount
	}

	return &Snapshot{
		Params:        a.params,
		StartBlock:    a.startBlock,
		PaymentToken:  a.paymentToken,
		AssetID:       a.assetID,
		Ended:         a.ended,
		HighestBid:    a.highestBid,
		HighestBidder: a.highestBidder,
		Refunds:       refunds,
		SettledPrice:  a.settledPrice,
		EndedAt:       a.endedAt,
	}
}

// Restore rebuilds an instance from a decoded snapshot. Unlike New it
// never moves the asset; escrow positions are already whatever the
// snapshot says they are.
func Restore(cfg Config, snap *Snapshot) (*Auction, error) {
	a, err := New(Config{
		ID:           cfg.ID,
		Params:       snap.Params,
		StartBlock:   snap.StartBlock,
		PaymentToken: snap.PaymentToken,
		NetworkID:    cfg.NetworkID,
		Balances:     cfg.Balances,
		Tokens:       cfg.Tokens,
	})
	if err != nil {
		return nil, err
	}

	a.assetID = snap.AssetID
	a.assets = cfg.Assets
	a.ended = snap.Ended
	a.highestBid = snap.HighestBid
	a.highestBidder = snap.HighestBidder
	a.settledPrice = snap.SettledPrice
	a.endedAt = snap.EndedAt
	for account, amount := range snap.Refunds {
		a.refunds[account] = amount
	}
	return a, nil
}
