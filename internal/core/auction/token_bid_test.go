package auction

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dutchd/dutchd/internal/chain"
	"github.com/dutchd/dutchd/internal/core/permit"
	"github.com/dutchd/dutchd/internal/core/token"
	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/crypto"
)

// tokenFixture is a token-payment auction with a keypair-backed bidder so
// permits can be signed.
type tokenFixture struct {
	t       *testing.T
	chain   *chain.Chain
	tokens  *token.Ledger
	auction *Auction
	key     *crypto.Keypair
	bidder  types.AccountID
}

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()

	c := chain.New(1, time.Unix(1_700_000_000, 0))
	tokens := token.NewLedger()

	var paymentToken types.AccountID
	paymentToken[0] = 0x70

	a, err := New(Config{
		ID: uuid.New(),
		Params: Params{
			Seller:              sellerAccount(),
			ReservePrice:        200,
			NumBlocksOpen:       10,
			OfferPriceDecrement: 50,
		},
		StartBlock:   c.Height(),
		PaymentToken: paymentToken,
		NetworkID:    c.NetworkID(),
		Tokens:       tokens,
	})
	require.NoError(t, err)

	key, err := crypto.NewKeypairFromSeed([]byte("token-fixture-bidder-seed"))
	require.NoError(t, err)

	return &tokenFixture{
		t:       t,
		chain:   c,
		tokens:  tokens,
		auction: a,
		key:     key,
		bidder:  key.AccountID(),
	}
}

// signedPermit builds a permit over the bidder's current nonce.
func (f *tokenFixture) signedPermit(value types.Amount, deadline time.Time) *permit.Permit {
	p := &permit.Permit{
		Owner:    f.bidder,
		Spender:  f.auction.Instance(),
		Value:    value,
		Nonce:    f.tokens.Nonce(f.bidder),
		Deadline: deadline,
	}
	f.auction.Verifier().Sign(p, f.key)
	return p
}

func TestTokenBidWithAllowance(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 1000)
	f.tokens.Approve(f.bidder, f.auction.Instance(), 800)

	result := f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700}, f.chain.Context())
	require.Equal(t, TesSUCCESS, result)

	require.Equal(t, types.Amount(300), f.tokens.BalanceOf(f.bidder))
	require.Equal(t, types.Amount(700), f.tokens.BalanceOf(f.auction.Instance()))
	require.Equal(t, types.Amount(100), f.tokens.Allowance(f.bidder, f.auction.Instance()))
}

func TestTokenBidWithoutAllowance(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 1000)

	result := f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700}, f.chain.Context())
	require.Equal(t, TecINSUFFICIENT_FUNDS, result)

	// Rejected in its entirety.
	require.Equal(t, types.Amount(1000), f.tokens.BalanceOf(f.bidder))
	require.True(t, f.auction.HighestBidder().IsZero())
}

func TestTokenBidInsufficientBalance(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 100)
	f.tokens.Approve(f.bidder, f.auction.Instance(), 800)

	result := f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700}, f.chain.Context())
	require.Equal(t, TecINSUFFICIENT_FUNDS, result)
	require.Equal(t, types.Amount(800), f.tokens.Allowance(f.bidder, f.auction.Instance()))
}

func TestPermitBid(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 1000)

	env := f.chain.Context()
	p := f.signedPermit(700, env.CloseTime.Add(time.Hour))

	result := f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700, Permit: p}, env)
	require.Equal(t, TesSUCCESS, result)

	require.Equal(t, types.Amount(300), f.tokens.BalanceOf(f.bidder))
	require.Equal(t, f.bidder, f.auction.HighestBidder())

	// The permit's nonce is consumed.
	require.Equal(t, uint64(1), f.tokens.Nonce(f.bidder))
}

func TestPermitExpired(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 1000)

	env := f.chain.Context()
	p := f.signedPermit(700, env.CloseTime.Add(-time.Second))

	result := f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700, Permit: p}, env)
	require.Equal(t, TecPERMIT_EXPIRED, result)
	require.Equal(t, uint64(0), f.tokens.Nonce(f.bidder))
	require.Equal(t, types.Amount(1000), f.tokens.BalanceOf(f.bidder))
}

func TestPermitReplayRejected(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 2000)

	env := f.chain.Context()
	p := f.signedPermit(700, env.CloseTime.Add(time.Hour))

	require.Equal(t, TesSUCCESS,
		f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700, Permit: p}, env))

	// Replaying the same permit fails on the consumed nonce.
	result := f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 800, Permit: p}, env)
	require.Equal(t, TecBAD_NONCE, result)
	require.Equal(t, types.Amount(700), f.auction.HighestBid())
}

func TestPermitWrongSigner(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 1000)

	mallory, err := crypto.NewKeypairFromSeed([]byte("mallory-keypair-seed-000"))
	require.NoError(t, err)

	env := f.chain.Context()
	p := &permit.Permit{
		Owner:    f.bidder,
		Spender:  f.auction.Instance(),
		Value:    700,
		Nonce:    0,
		Deadline: env.CloseTime.Add(time.Hour),
	}
	f.auction.Verifier().Sign(p, mallory)

	result := f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700, Permit: p}, env)
	require.Equal(t, TefBAD_SIGNATURE, result)
	require.Equal(t, types.Amount(1000), f.tokens.BalanceOf(f.bidder))
}

func TestPermitValueBelowBid(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 1000)

	env := f.chain.Context()
	p := f.signedPermit(600, env.CloseTime.Add(time.Hour))

	result := f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700, Permit: p}, env)
	require.Equal(t, TemBAD_AMOUNT, result)
}

func TestPermitInsufficientBalanceIsAtomic(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 100)

	env := f.chain.Context()
	p := f.signedPermit(700, env.CloseTime.Add(time.Hour))

	result := f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700, Permit: p}, env)
	require.Equal(t, TecINSUFFICIENT_FUNDS, result)

	// The permit was not consumed: no allowance granted, nonce intact.
	require.Equal(t, types.Amount(0), f.tokens.Allowance(f.bidder, f.auction.Instance()))
	require.Equal(t, uint64(0), f.tokens.Nonce(f.bidder))
}

func TestTokenSettlementPaysSellerInTokens(t *testing.T) {
	f := newTokenFixture(t)
	f.tokens.Mint(f.bidder, 1000)
	f.tokens.Approve(f.bidder, f.auction.Instance(), 1000)

	require.Equal(t, TesSUCCESS,
		f.auction.SubmitBid(BidOp{Bidder: f.bidder, Amount: 700}, f.chain.Context()))
	require.Equal(t, TesSUCCESS,
		f.auction.EndAuction(sellerAccount(), f.chain.Context()))

	require.Equal(t, types.Amount(700), f.tokens.BalanceOf(sellerAccount()))
	require.Equal(t, types.Amount(0), f.tokens.BalanceOf(f.auction.Instance()))
}
