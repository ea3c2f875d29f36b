package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dutchd/dutchd/internal/storage/keyValueDb"
)

func TestReadWriteDelete(t *testing.T) {
	db := New()
	ctx := context.Background()

	_, err := db.Read(ctx, []byte("missing"))
	require.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)

	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	require.NoError(t, db.Delete(ctx, []byte("k")))
	_, err = db.Read(ctx, []byte("k"))
	require.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)
}

func TestBatch(t *testing.T) {
	db := New()
	ctx := context.Background()

	require.NoError(t, db.Write(ctx, []byte("doomed"), []byte("x")))
	require.NoError(t, db.Batch(ctx, []keyValueDb.BatchOperation{
		{Type: keyValueDb.BatchPut, Key: []byte("a"), Value: []byte("1")},
		{Type: keyValueDb.BatchPut, Key: []byte("b"), Value: []byte("2")},
		{Type: keyValueDb.BatchDelete, Key: []byte("doomed")},
	}))

	got, err := db.Read(ctx, []byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)

	_, err = db.Read(ctx, []byte("doomed"))
	require.ErrorIs(t, err, keyValueDb.ErrKeyNotFound)
}

func TestIteratorRange(t *testing.T) {
	db := New()
	ctx := context.Background()

	for _, k := range []string{"a/1", "a/2", "b/1", "c/1"} {
		require.NoError(t, db.Write(ctx, []byte(k), []byte(k)))
	}

	it, err := db.Iterator(ctx, []byte("a/"), []byte("b/"))
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	require.Equal(t, []string{"a/1", "a/2"}, keys)
}

func TestClosed(t *testing.T) {
	db := New()
	require.NoError(t, db.Close())

	require.ErrorIs(t, db.Write(context.Background(), []byte("k"), nil), keyValueDb.ErrDBClosed)
	_, err := db.Read(context.Background(), []byte("k"))
	require.ErrorIs(t, err, keyValueDb.ErrDBClosed)
}
