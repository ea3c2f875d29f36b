// Package snapshot persists auction state snapshots into a keyValueDb.
// Records are framed with a small header so the compression applied to a
// record travels with it, and small records skip compression entirely.
package snapshot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dutchd/dutchd/internal/core/auction"
	"github.com/dutchd/dutchd/internal/storage/keyValueDb"
)

// Record framing.
const (
	// recordHeaderSize is flags (1) + uncompressed length (4).
	recordHeaderSize = 1 + 4

	flagCompressed = 0x01

	// minCompressionSize skips compression for records that cannot win.
	minCompressionSize = 128
)

// ErrCorruptRecord is returned when a stored record fails framing checks.
var ErrCorruptRecord = errors.New("corrupt snapshot record")

var keyPrefix = []byte("auction/")

func recordKey(id uuid.UUID) []byte {
	return append(append([]byte{}, keyPrefix...), id[:]...)
}

// Store reads and writes auction snapshots.
type Store struct {
	db         keyValueDb.DB
	compressor Compressor
}

// NewStore creates a store over db. A nil compressor stores records raw.
func NewStore(db keyValueDb.DB, compressor Compressor) *Store {
	if compressor == nil {
		compressor = &NoCompressor{}
	}
	return &Store{db: db, compressor: compressor}
}

// Put encodes and writes a snapshot under its auction id.
func (s *Store) Put(ctx context.Context, id uuid.UUID, snap *auction.Snapshot) error {
	body, err := snap.Encode()
	if err != nil {
		return err
	}
	return s.db.Write(ctx, recordKey(id), s.frame(body))
}

func (s *Store) frame(body []byte) []byte {
	record := make([]byte, recordHeaderSize, recordHeaderSize+len(body))
	binary.BigEndian.PutUint32(record[1:], uint32(len(body)))

	if len(body) >= minCompressionSize {
		if compressed, err := s.compressor.Compress(body); err == nil &&
			compressed != nil && len(compressed) < len(body) {
			record[0] |= flagCompressed
			return append(record, compressed...)
		}
	}
	return append(record, body...)
}

func (s *Store) unframe(record []byte) ([]byte, error) {
	if len(record) < recordHeaderSize {
		return nil, ErrCorruptRecord
	}
	flags := record[0]
	size := binary.BigEndian.Uint32(record[1:recordHeaderSize])
	body := record[recordHeaderSize:]

	if flags&flagCompressed != 0 {
		out, err := s.compressor.Decompress(body, int(size))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		body = out
	}
	if uint32(len(body)) != size {
		return nil, ErrCorruptRecord
	}
	return body, nil
}

// Get reads and decodes the snapshot for an auction id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*auction.Snapshot, error) {
	record, err := s.db.Read(ctx, recordKey(id))
	if err != nil {
		return nil, err
	}
	body, err := s.unframe(record)
	if err != nil {
		return nil, err
	}
	return auction.DecodeSnapshot(body)
}

// Delete removes an auction's snapshot.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.Delete(ctx, recordKey(id))
}

// prefixSuccessor returns the smallest key that sorts after every key
// carrying prefix, for use as an exclusive iterator bound. Appending a byte
// to the prefix would not do: the appended byte sorts before longer keys
// whose next byte is greater.
func prefixSuccessor(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// List returns the ids of every stored auction.
func (s *Store) List(ctx context.Context) ([]uuid.UUID, error) {
	it, err := s.db.Iterator(ctx, keyPrefix, prefixSuccessor(keyPrefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var ids []uuid.UUID
	for it.Next() {
		key := it.Key()
		if len(key) != len(keyPrefix)+16 {
			continue
		}
		var id uuid.UUID
		copy(id[:], key[len(keyPrefix):])
		ids = append(ids, id)
	}
	return ids, it.Error()
}
