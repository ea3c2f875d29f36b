package auction

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/ugorji/go/codec"

	"github.com/dutchd/dutchd/internal/core/types"
)

// Storage schema versions. The persisted layout is positional and
// append-only: every version keeps the fields of the one before it, with
// the same meaning and in the same order, and only appends new fields at
// the end. A running instance written by an older engine must decode
// cleanly under a newer one.
const (
	schemaV1 = 1
	schemaV2 = 2

	// SchemaVersion is what new snapshots are written as.
	SchemaVersion = schemaV2
)

var (
	// ErrEmptySnapshot is returned when decoding zero bytes.
	ErrEmptySnapshot = errors.New("empty auction snapshot")
	// ErrUnknownSchema is returned for a version byte this engine does
	// not know.
	ErrUnknownSchema = errors.New("unknown auction schema version")
)

// Snapshot is the full persisted state of one auction instance.
type Snapshot struct {
	Params     Params
	StartBlock types.BlockHeight

	// PaymentToken selects the payment mode: the zero account means
	// native-currency bids, anything else names the token ledger bids are
	// pulled from.
	PaymentToken types.AccountID

	// AssetID is the auctioned asset, 0 when the sale is off-ledger.
	AssetID uint64

	Ended         bool
	HighestBid    types.Amount
	HighestBidder types.AccountID
	Refunds       map[types.AccountID]types.Amount

	// Appended in schema v2.
	SettledPrice types.Amount
	EndedAt      types.BlockHeight
}

// persistedV2 is the wire form of a snapshot. Encoded positionally
// (toarray), so field order is the storage contract.
type persistedV2 struct {
	_struct bool `codec:",toarray"`

	Seller              []byte
	ReservePrice        uint64
	NumBlocksOpen       uint64
	OfferPriceDecrement uint64
	StartBlock          uint64
	PaymentToken        []byte
	AssetID             uint64
	Ended               bool
	HighestBid          uint64
	HighestBidder       []byte
	RefundAccounts      [][]byte
	RefundAmounts       []uint64

	// v2 additions, appended only.
	SettledPrice uint64
	EndedAt      uint64
}

// persistedV1 is the layout before settlement metadata was recorded.
type persistedV1 struct {
	_struct bool `codec:",toarray"`

	Seller              []byte
	ReservePrice        uint64
	NumBlocksOpen       uint64
	OfferPriceDecrement uint64
	StartBlock          uint64
	PaymentToken        []byte
	AssetID             uint64
	Ended               bool
	HighestBid          uint64
	HighestBidder       []byte
	RefundAccounts      [][]byte
	RefundAmounts       []uint64
}

func snapshotHandle() *codec.CborHandle {
	return &codec.CborHandle{}
}

// Encode serializes the snapshot under the current schema version. The
// first byte of the output is the version.
func (s *Snapshot) Encode() ([]byte, error) {
	accounts := make([][]byte, 0, len(s.Refunds))
	for account := range s.Refunds {
		accounts = append(accounts, account.Bytes())
	}
	// Map iteration order is not stable; the wire form is.
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i], accounts[j]) < 0
	})

	amounts := make([]uint64, len(accounts))
	for i, raw := range accounts {
		amounts[i] = s.Refunds[types.AccountIDFromBytes(raw)]
	}

	p := persistedV2{
		Seller:              s.Params.Seller.Bytes(),
		ReservePrice:        s.Params.ReservePrice,
		NumBlocksOpen:       s.Params.NumBlocksOpen,
		OfferPriceDecrement: s.Params.OfferPriceDecrement,
		StartBlock:          s.StartBlock,
		PaymentToken:        s.PaymentToken.Bytes(),
		AssetID:             s.AssetID,
		Ended:               s.Ended,
		HighestBid:          s.HighestBid,
		HighestBidder:       s.HighestBidder.Bytes(),
		RefundAccounts:      accounts,
		RefundAmounts:       amounts,
		SettledPrice:        s.SettledPrice,
		EndedAt:             s.EndedAt,
	}

	var body []byte
	if err := codec.NewEncoderBytes(&body, snapshotHandle()).Encode(&p); err != nil {
		return nil, fmt.Errorf("encode auction snapshot: %w", err)
	}
	return append([]byte{SchemaVersion}, body...), nil
}

// DecodeSnapshot reads a snapshot written by this or any earlier schema
// version, migrating old layouts forward.
func DecodeSnapshot(b []byte) (*Snapshot, error) {
	if len(b) == 0 {
		return nil, ErrEmptySnapshot
	}

	version, body := b[0], b[1:]
	switch version {
	case schemaV1:
		var p persistedV1
		if err := codec.NewDecoderBytes(body, snapshotHandle()).Decode(&p); err != nil {
			return nil, fmt.Errorf("decode auction snapshot v1: %w", err)
		}
		return migrateV1(&p), nil
	case schemaV2:
		var p persistedV2
		if err := codec.NewDecoderBytes(body, snapshotHandle()).Decode(&p); err != nil {
			return nil, fmt.Errorf("decode auction snapshot v2: %w", err)
		}
		return fromPersistedV2(&p), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchema, version)
	}
}

// migrateV1 lifts a v1 snapshot into the current layout. An ended v1
// auction settled at its recorded highest bid; the ending height was not
// recorded and stays zero.
func migrateV1(p *persistedV1) *Snapshot {
	v2 := persistedV2{
		Seller:              p.Seller,
		ReservePrice:        p.ReservePrice,
		NumBlocksOpen:       p.NumBlocksOpen,
		OfferPriceDecrement: p.OfferPriceDecrement,
		StartBlock:          p.StartBlock,
		PaymentToken:        p.PaymentToken,
		AssetID:             p.AssetID,
		Ended:               p.Ended,
		HighestBid:          p.HighestBid,
		HighestBidder:       p.HighestBidder,
		RefundAccounts:      p.RefundAccounts,
		RefundAmounts:       p.RefundAmounts,
	}
	if p.Ended {
		v2.SettledPrice = p.HighestBid
	}
	return fromPersistedV2(&v2)
}

func fromPersistedV2(p *persistedV2) *Snapshot {
	refunds := make(map[types.AccountID]types.Amount, len(p.RefundAccounts))
	for i, raw := range p.RefundAccounts {
		if i < len(p.RefundAmounts) {
			refunds[types.AccountIDFromBytes(raw)] = p.RefundAmounts[i]
		}
	}

	return &Snapshot{
		Params: Params{
			Seller:              types.AccountIDFromBytes(p.Seller),
			ReservePrice:        p.ReservePrice,
			NumBlocksOpen:       p.NumBlocksOpen,
			OfferPriceDecrement: p.OfferPriceDecrement,
		},
		StartBlock:    p.StartBlock,
		PaymentToken:  types.AccountIDFromBytes(p.PaymentToken),
		AssetID:       p.AssetID,
		Ended:         p.Ended,
		HighestBid:    p.HighestBid,
		HighestBidder: types.AccountIDFromBytes(p.HighestBidder),
		Refunds:       refunds,
		SettledPrice:  p.SettledPrice,
		EndedAt:       p.EndedAt,
	}
}
