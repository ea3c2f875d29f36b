// Package historydb keeps the relational audit trail: every processed bid
// and every settlement, queryable after the fact. SQLite is the default
// embedded driver; PostgreSQL serves shared deployments.
package historydb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // embedded SQLite driver

	"github.com/dutchd/dutchd/internal/core/types"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// BidRecord is one processed bid operation.
type BidRecord struct {
	AuctionID uuid.UUID
	Height    types.BlockHeight
	Bidder    types.AccountID
	Amount    types.Amount
	Result    string
	At        time.Time
}

// SettlementRecord is one auction settlement.
type SettlementRecord struct {
	AuctionID uuid.UUID
	Winner    types.AccountID
	Price     types.Amount
	EndedAt   types.BlockHeight
	At        time.Time
}

// DB is the audit database.
type DB struct {
	db     *sql.DB
	driver string
}

// Open opens the audit database and initializes its schema. For sqlite the
// DSN is a file path (or ":memory:"); for postgres a connection string.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	h := &DB{db: sqlDB, driver: driver}
	if err := h.initSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return h, nil
}

func (h *DB) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bids (
			auction_id TEXT NOT NULL,
			height     BIGINT NOT NULL,
			bidder     TEXT NOT NULL,
			amount     BIGINT NOT NULL,
			result     TEXT NOT NULL,
			at         TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS bids_auction_idx ON bids (auction_id, height)`,
		`CREATE TABLE IF NOT EXISTS settlements (
			auction_id TEXT PRIMARY KEY,
			winner     TEXT NOT NULL,
			price      BIGINT NOT NULL,
			ended_at   BIGINT NOT NULL,
			at         TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := h.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// placeholder renders the n-th bind parameter for the active driver.
func (h *DB) placeholder(n int) string {
	if h.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (h *DB) binds(count int) string {
	out := ""
	for i := 1; i <= count; i++ {
		if i > 1 {
			out += ", "
		}
		out += h.placeholder(i)
	}
	return out
}

// RecordBid appends a bid record.
func (h *DB) RecordBid(ctx context.Context, rec BidRecord) error {
	query := fmt.Sprintf(
		`INSERT INTO bids (auction_id, height, bidder, amount, result, at) VALUES (%s)`,
		h.binds(6))
	_, err := h.db.ExecContext(ctx, query,
		rec.AuctionID.String(), int64(rec.Height), rec.Bidder.String(),
		int64(rec.Amount), rec.Result, rec.At.UTC())
	return err
}

// RecordSettlement records an auction's single settlement.
func (h *DB) RecordSettlement(ctx context.Context, rec SettlementRecord) error {
	query := fmt.Sprintf(
		`INSERT INTO settlements (auction_id, winner, price, ended_at, at) VALUES (%s)`,
		h.binds(5))
	_, err := h.db.ExecContext(ctx, query,
		rec.AuctionID.String(), rec.Winner.String(), int64(rec.Price),
		int64(rec.EndedAt), rec.At.UTC())
	return err
}

// BidsForAuction returns an auction's bid trail in height order.
func (h *DB) BidsForAuction(ctx context.Context, id uuid.UUID) ([]BidRecord, error) {
	query := fmt.Sprintf(
		`SELECT height, bidder, amount, result, at FROM bids WHERE auction_id = %s ORDER BY height, at`,
		h.placeholder(1))
	rows, err := h.db.QueryContext(ctx, query, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BidRecord
	for rows.Next() {
		rec := BidRecord{AuctionID: id}
		var height, amount int64
		var bidder string
		if err := rows.Scan(&height, &bidder, &amount, &rec.Result, &rec.At); err != nil {
			return nil, err
		}
		rec.Height = types.BlockHeight(height)
		rec.Amount = types.Amount(amount)
		if rec.Bidder, err = types.ParseAccountID(bidder); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Settlement returns an auction's settlement record, or sql.ErrNoRows.
func (h *DB) Settlement(ctx context.Context, id uuid.UUID) (*SettlementRecord, error) {
	query := fmt.Sprintf(
		`SELECT winner, price, ended_at, at FROM settlements WHERE auction_id = %s`,
		h.placeholder(1))

	rec := SettlementRecord{AuctionID: id}
	var winner string
	var price, endedAt int64
	err := h.db.QueryRowContext(ctx, query, id.String()).
		Scan(&winner, &price, &endedAt, &rec.At)
	if err != nil {
		return nil, err
	}
	rec.Price = types.Amount(price)
	rec.EndedAt = types.BlockHeight(endedAt)
	if rec.Winner, err = types.ParseAccountID(winner); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Close closes the underlying connection pool.
func (h *DB) Close() error {
	return h.db.Close()
}
