package auction

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"

	"github.com/dutchd/dutchd/internal/core/types"
)

func TestSnapshotRoundTrip(t *testing.T) {
	alice, bob := bidderAccount(1), bidderAccount(2)

	want := &Snapshot{
		Params: Params{
			Seller:              sellerAccount(),
			ReservePrice:        2 * unit,
			NumBlocksOpen:       10,
			OfferPriceDecrement: unit / 2,
		},
		StartBlock:    100,
		AssetID:       7,
		Ended:         true,
		HighestBid:    4 * unit,
		HighestBidder: bob,
		Refunds: map[types.AccountID]types.Amount{
			alice: 3 * unit,
		},
		SettledPrice: 4 * unit,
		EndedAt:      110,
	}

	encoded, err := want.Encode()
	require.NoError(t, err)
	require.Equal(t, byte(SchemaVersion), encoded[0])

	got, err := DecodeSnapshot(encoded)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestEncodeDeterministic(t *testing.T) {
	snap := &Snapshot{
		Params:  Params{Seller: sellerAccount(), ReservePrice: 1, NumBlocksOpen: 1},
		Refunds: map[types.AccountID]types.Amount{},
	}
	for i := byte(0); i < 10; i++ {
		snap.Refunds[bidderAccount(i)] = types.Amount(i)
	}

	first, err := snap.Encode()
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := snap.Encode()
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestDecodeV1Migrates(t *testing.T) {
	alice := bidderAccount(1)

	v1 := persistedV1{
		Seller:              sellerAccount().Bytes(),
		ReservePrice:        2 * unit,
		NumBlocksOpen:       10,
		OfferPriceDecrement: unit / 2,
		StartBlock:          100,
		PaymentToken:        types.ZeroAccount.Bytes(),
		AssetID:             7,
		Ended:               true,
		HighestBid:          4 * unit,
		HighestBidder:       alice.Bytes(),
		RefundAccounts:      [][]byte{bidderAccount(2).Bytes()},
		RefundAmounts:       []uint64{3 * unit},
	}
	var body []byte
	require.NoError(t, codec.NewEncoderBytes(&body, snapshotHandle()).Encode(&v1))

	got, err := DecodeSnapshot(append([]byte{schemaV1}, body...))
	require.NoError(t, err)

	require.Equal(t, alice, got.HighestBidder)
	require.Equal(t, types.Amount(3*unit), got.Refunds[bidderAccount(2)])

	// An ended v1 auction settled at its recorded highest bid; the new
	// field is backfilled by the migration.
	require.Equal(t, types.Amount(4*unit), got.SettledPrice)
	require.Equal(t, types.BlockHeight(0), got.EndedAt)
}

func TestDecodeV1OpenAuction(t *testing.T) {
	v1 := persistedV1{
		Seller:              sellerAccount().Bytes(),
		ReservePrice:        100,
		NumBlocksOpen:       10,
		OfferPriceDecrement: 5,
		PaymentToken:        types.ZeroAccount.Bytes(),
		HighestBidder:       types.ZeroAccount.Bytes(),
	}
	var body []byte
	require.NoError(t, codec.NewEncoderBytes(&body, snapshotHandle()).Encode(&v1))

	got, err := DecodeSnapshot(append([]byte{schemaV1}, body...))
	require.NoError(t, err)
	require.False(t, got.Ended)
	require.Equal(t, types.Amount(0), got.SettledPrice)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeSnapshot(nil)
	require.ErrorIs(t, err, ErrEmptySnapshot)

	_, err = DecodeSnapshot([]byte{99, 0x00})
	require.ErrorIs(t, err, ErrUnknownSchema)
}
