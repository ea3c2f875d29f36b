package historydb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dutchd/dutchd/internal/core/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func acct(b byte) types.AccountID {
	var id types.AccountID
	id[0] = b
	return id
}

func TestBidTrail(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := uuid.New()
	now := time.Unix(1_700_000_000, 0)

	records := []BidRecord{
		{AuctionID: id, Height: 1, Bidder: acct(1), Amount: 300, Result: "tesSUCCESS", At: now},
		{AuctionID: id, Height: 2, Bidder: acct(2), Amount: 400, Result: "tesSUCCESS", At: now.Add(time.Second)},
		{AuctionID: id, Height: 3, Bidder: acct(3), Amount: 400, Result: "tecBID_TOO_LOW", At: now.Add(2 * time.Second)},
	}
	for _, rec := range records {
		require.NoError(t, db.RecordBid(ctx, rec))
	}

	// A different auction's bids must not leak in.
	require.NoError(t, db.RecordBid(ctx, BidRecord{
		AuctionID: uuid.New(), Height: 1, Bidder: acct(9), Amount: 1, Result: "tesSUCCESS", At: now,
	}))

	got, err := db.BidsForAuction(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, acct(2), got[1].Bidder)
	require.Equal(t, types.Amount(400), got[1].Amount)
	require.Equal(t, "tecBID_TOO_LOW", got[2].Result)
}

func TestSettlement(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := db.Settlement(ctx, id)
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, db.RecordSettlement(ctx, SettlementRecord{
		AuctionID: id,
		Winner:    acct(2),
		Price:     400,
		EndedAt:   12,
		At:        time.Unix(1_700_000_000, 0),
	}))

	got, err := db.Settlement(ctx, id)
	require.NoError(t, err)
	require.Equal(t, acct(2), got.Winner)
	require.Equal(t, types.Amount(400), got.Price)
	require.Equal(t, types.BlockHeight(12), got.EndedAt)
}
