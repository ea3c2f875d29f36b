// Package memory provides an in-memory keyValueDb backend for tests and
// development.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/dutchd/dutchd/internal/storage/keyValueDb"
)

// DB is a thread-safe in-memory key-value store.
type DB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// New creates an empty in-memory store.
func New() *DB {
	return &DB{data: make(map[string][]byte)}
}

func (d *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, keyValueDb.ErrDBClosed
	}
	value, ok := d.data[string(key)]
	if !ok {
		return nil, keyValueDb.ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (d *DB) Write(ctx context.Context, key, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return keyValueDb.ErrDBClosed
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	d.data[string(key)] = stored
	return nil
}

func (d *DB) Delete(ctx context.Context, key []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return keyValueDb.ErrDBClosed
	}
	delete(d.data, string(key))
	return nil
}

func (d *DB) Batch(ctx context.Context, ops []keyValueDb.BatchOperation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return keyValueDb.ErrDBClosed
	}
	for _, op := range ops {
		switch op.Type {
		case keyValueDb.BatchPut:
			stored := make([]byte, len(op.Value))
			copy(stored, op.Value)
			d.data[string(op.Key)] = stored
		case keyValueDb.BatchDelete:
			delete(d.data, string(op.Key))
		}
	}
	return nil
}

// Iterator returns entries with start <= key < end in key order. A nil end
// means no upper bound.
func (d *DB) Iterator(ctx context.Context, start, end []byte) (keyValueDb.Iterator, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, keyValueDb.ErrDBClosed
	}

	keys := make([]string, 0, len(d.data))
	for k := range d.data {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]entry, len(keys))
	for i, k := range keys {
		entries[i] = entry{key: []byte(k), value: d.data[k]}
	}
	return &iterator{entries: entries, pos: -1}, nil
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.data = make(map[string][]byte)
	return nil
}

type entry struct {
	key, value []byte
}

type iterator struct {
	entries []entry
	pos     int
}

func (it *iterator) Next() bool {
	it.pos++
	return it.pos < len(it.entries)
}

func (it *iterator) Key() []byte   { return it.entries[it.pos].key }
func (it *iterator) Value() []byte { return it.entries[it.pos].value }
func (it *iterator) Error() error  { return nil }
func (it *iterator) Close() error  { return nil }
