// Package leveldb provides an alternative keyValueDb backend on goleveldb,
// for deployments that prefer a single-file-tree store without PebbleDB's
// background compaction footprint.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/dutchd/dutchd/internal/storage/keyValueDb"
)

var syncWrites = &opt.WriteOptions{Sync: true}

// DB wraps a goleveldb instance behind the keyValueDb interface.
type DB struct {
	db   *leveldb.DB
	open int64
}

// Open opens or creates a LevelDB store at path.
func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB at %s: %w", path, err)
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
	value, err := d.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, keyValueDb.ErrKeyNotFound
	}
	return value, err
}

func (d *DB) Write(ctx context.Context, key, value []byte) error {
	if !d.isOpen() {
		return keyValueDb.ErrDBClosed
	}
	return d.db.Put(key, value, syncWrites)
}

func (d *DB) Delete(ctx context.Context, key []byte) error {
	if !d.isOpen() {
		return keyValueDb.ErrDBClosed
	}
	return d.db.Delete(key, syncWrites)
}

func (d *DB) Batch(ctx context.Context, ops []keyValueDb.BatchOperation) error {
	if !d.isOpen() {
		return keyValueDb.ErrDBClosed
	}
	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case keyValueDb.BatchPut:
			batch.Put(op.Key, op.Value)
		case keyValueDb.BatchDelete:
			batch.Delete(op.Key)
		}
	}
	return d.db.Write(batch, syncWrites)
}

func (d *DB) Iterator(ctx context.Context, start, end []byte) (keyValueDb.Iterator, error) {
	if !d.isOpen() {
		return nil, keyValueDb.ErrDBClosed
	}
	it := d.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	return &iterator{it: it}, nil
}

func (d *DB) Close() error {
	if !atomic.CompareAndSwapInt64(&d.open, 1, 0) {
		return nil
	}
	return d.db.Close()
}

type iterator struct {
	it ldbIterator
}

// ldbIterator is the subset of goleveldb's iterator the wrapper uses.
type ldbIterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

func (i *iterator) Next() bool { return i.it.Next() }

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

func (i *iterator) Close() error {
	i.it.Release()
	return nil
}
