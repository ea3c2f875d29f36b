// Package pebble provides the production keyValueDb backend on PebbleDB.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/dutchd/dutchd/internal/storage/keyValueDb"
)

// DB wraps a PebbleDB instance behind the keyValueDb interface.
type DB struct {
	db   *pebble.DB
	open int64
}

// Open opens or creates a PebbleDB store at path.
func Open(path string) (*DB, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB at %s: %w", path, err)
	}
	return &DB{db: db, open: 1}, nil
}

func (d *DB) isOpen() bool {
	return atomic.LoadInt64(&d.open) != 0
}

func (d *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if !d.isOpen() {
		return nil, keyValueDb.ErrDBClosed
	}
	value, closer, err := d.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, keyValueDb.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(value))
	copy(out, value)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) Write(ctx context.Context, key, value []byte) error {
	if !d.isOpen() {
		return keyValueDb.ErrDBClosed
	}
	return d.db.Set(key, value, pebble.Sync)
}

func (d *DB) Delete(ctx context.Context, key []byte) error {
	if !d.isOpen() {
		return keyValueDb.ErrDBClosed
	}
	return d.db.Delete(key, pebble.Sync)
}

func (d *DB) Batch(ctx context.Context, ops []keyValueDb.BatchOperation) error {
	if !d.isOpen() {
		return keyValueDb.ErrDBClosed
	}
	batch := d.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		var err error
		switch op.Type {
		case keyValueDb.BatchPut:
			err = batch.Set(op.Key, op.Value, nil)
		case keyValueDb.BatchDelete:
			err = batch.Delete(op.Key, nil)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", keyValueDb.ErrBatchOperationFailed, err)
		}
	}
	return d.db.Apply(batch, pebble.Sync)
}

func (d *DB) Iterator(ctx context.Context, start, end []byte) (keyValueDb.Iterator, error) {
	if !d.isOpen() {
		return nil, keyValueDb.ErrDBClosed
	}
	it, err := d.db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
	if err != nil {
		return nil, err
	}
	return &iterator{it: it}, nil
}

func (d *DB) Close() error {
	if !atomic.CompareAndSwapInt64(&d.open, 1, 0) {
		return nil
	}
	return d.db.Close()
}

type iterator struct {
	it      *pebble.Iterator
	started bool
}

func (i *iterator) Next() bool {
	if !i.started {
		i.started = true
		return i.it.First()
	}
	return i.it.Next()
}

func (i *iterator) Key() []byte {
	key := i.it.Key()
	out := make([]byte, len(key))
	copy(out, key)
	return out
}

func (i *iterator) Value() []byte {
	value := i.it.Value()
	out := make([]byte, len(value))
	copy(out, value)
	return out
}

func (i *iterator) Error() error { return i.it.Error() }
func (i *iterator) Close() error { return i.it.Close() }
