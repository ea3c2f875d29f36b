package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dutchd/dutchd/internal/chain"
	"github.com/dutchd/dutchd/internal/core/auction"
	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/storage/historydb"
	"github.com/dutchd/dutchd/internal/storage/keyValueDb/memory"
)

func acct(b byte) types.AccountID {
	var id types.AccountID
	id[0] = b
	return id
}

type recordedEvent struct {
	kind string
	id   uuid.UUID
	who  types.AccountID
	amt  types.Amount
}

type testSink struct {
	events []recordedEvent
}

func (s *testSink) AuctionCreated(id uuid.UUID, seller types.AccountID, initialPrice types.Amount, _ types.BlockHeight) {
	s.events = append(s.events, recordedEvent{"created", id, seller, initialPrice})
}

func (s *testSink) BidAccepted(id uuid.UUID, bidder types.AccountID, amount types.Amount, _ types.BlockHeight) {
	s.events = append(s.events, recordedEvent{"bid", id, bidder, amount})
}

func (s *testSink) AuctionEnded(id uuid.UUID, winner types.AccountID, price types.Amount, _ types.BlockHeight) {
	s.events = append(s.events, recordedEvent{"ended", id, winner, price})
}

func (s *testSink) RefundWithdrawn(id uuid.UUID, account types.AccountID, amount types.Amount) {
	s.events = append(s.events, recordedEvent{"withdrawn", id, account, amount})
}

type fixture struct {
	t        *testing.T
	chain    *chain.Chain
	balances *chain.Balances
	registry *Registry
	history  *historydb.DB
	sink     *testSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	c := chain.New(1, time.Unix(1_700_000_000, 0))
	balances := chain.NewBalances()

	history, err := historydb.Open(context.Background(), historydb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	sink := &testSink{}
	reg, err := New(Config{
		Chain:    c,
		Balances: balances,
		Store:    memory.New(),
		History:  history,
		Events:   sink,
	})
	require.NoError(t, err)

	return &fixture{t: t, chain: c, balances: balances, registry: reg, history: history, sink: sink}
}

func (f *fixture) createAuction() uuid.UUID {
	f.t.Helper()
	id, err := f.registry.Create(context.Background(), CreateRequest{
		Params: auction.Params{
			Seller:              acct(1),
			ReservePrice:        200,
			NumBlocksOpen:       10,
			OfferPriceDecrement: 50,
		},
	})
	require.NoError(f.t, err)
	return id
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)
	id := f.createAuction()

	a, err := f.registry.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, types.Amount(700), a.CurrentPrice(f.chain.Height()))

	ids, err := f.registry.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{id}, ids)

	require.Equal(t, "created", f.sink.events[0].kind)
	require.Equal(t, types.Amount(700), f.sink.events[0].amt)
}

func TestGetUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBidFlowRecordsHistoryAndEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createAuction()

	alice := acct(2)
	f.balances.Credit(alice, 1000)

	result, err := f.registry.SubmitBid(ctx, id, auction.BidOp{Bidder: alice, Amount: 700})
	require.NoError(t, err)
	require.Equal(t, auction.TesSUCCESS, result)

	result, err = f.registry.SubmitBid(ctx, id, auction.BidOp{Bidder: alice, Amount: 100})
	require.NoError(t, err)
	require.Equal(t, auction.TecBID_TOO_LOW, result)

	trail, err := f.history.BidsForAuction(ctx, id)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	require.Equal(t, "tesSUCCESS", trail[0].Result)
	require.Equal(t, "tecBID_TOO_LOW", trail[1].Result)

	require.Equal(t, "bid", f.sink.events[1].kind)
	require.Equal(t, alice, f.sink.events[1].who)
}

func TestEndAuctionSettlesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createAuction()

	alice := acct(2)
	f.balances.Credit(alice, 1000)
	_, err := f.registry.SubmitBid(ctx, id, auction.BidOp{Bidder: alice, Amount: 700})
	require.NoError(t, err)

	result, err := f.registry.EndAuction(ctx, id, acct(1))
	require.NoError(t, err)
	require.Equal(t, auction.TesSUCCESS, result)

	settlement, err := f.history.Settlement(ctx, id)
	require.NoError(t, err)
	require.Equal(t, alice, settlement.Winner)
	require.Equal(t, types.Amount(700), settlement.Price)

	last := f.sink.events[len(f.sink.events)-1]
	require.Equal(t, "ended", last.kind)
	require.Equal(t, alice, last.who)

	// A repeat end is rejected and adds no second settlement event.
	events := len(f.sink.events)
	result, err = f.registry.EndAuction(ctx, id, acct(1))
	require.NoError(t, err)
	require.Equal(t, auction.TecALREADY_ENDED, result)
	require.Len(t, f.sink.events, events)
}

func TestWithdrawThroughRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createAuction()

	alice, bob := acct(2), acct(3)
	f.balances.Credit(alice, 1000)
	f.balances.Credit(bob, 1000)

	_, err := f.registry.SubmitBid(ctx, id, auction.BidOp{Bidder: alice, Amount: 700})
	require.NoError(t, err)
	_, err = f.registry.SubmitBid(ctx, id, auction.BidOp{Bidder: bob, Amount: 800})
	require.NoError(t, err)

	result, err := f.registry.Withdraw(ctx, id, alice)
	require.NoError(t, err)
	require.Equal(t, auction.TesSUCCESS, result)
	require.Equal(t, types.Amount(1000), f.balances.BalanceOf(alice))

	last := f.sink.events[len(f.sink.events)-1]
	require.Equal(t, "withdrawn", last.kind)
	require.Equal(t, types.Amount(700), last.amt)
}

func TestInstanceSurvivesCacheEviction(t *testing.T) {
	c := chain.New(1, time.Unix(1_700_000_000, 0))
	balances := chain.NewBalances()

	reg, err := New(Config{
		Chain:     c,
		Balances:  balances,
		Store:     memory.New(),
		CacheSize: 1,
	})
	require.NoError(t, err)

	ctx := context.Background()
	params := auction.Params{
		Seller:              acct(1),
		ReservePrice:        200,
		NumBlocksOpen:       10,
		OfferPriceDecrement: 50,
	}

	first, err := reg.Create(ctx, CreateRequest{Params: params})
	require.NoError(t, err)

	alice := acct(2)
	balances.Credit(alice, 2000)
	result, err := reg.SubmitBid(ctx, first, auction.BidOp{Bidder: alice, Amount: 700})
	require.NoError(t, err)
	require.Equal(t, auction.TesSUCCESS, result)

	// Creating a second auction evicts the first from the size-1 cache;
	// its state must come back from the snapshot store.
	_, err = reg.Create(ctx, CreateRequest{Params: params})
	require.NoError(t, err)

	a, err := reg.Get(ctx, first)
	require.NoError(t, err)
	require.Equal(t, alice, a.HighestBidder())
	require.Equal(t, types.Amount(700), a.HighestBid())
}
