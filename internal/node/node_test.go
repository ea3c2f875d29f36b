package node

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dutchd/dutchd/internal/config"
	"github.com/dutchd/dutchd/internal/registry"
	"github.com/dutchd/dutchd/internal/storage/keyValueDb"
)

func TestNewNodeFromDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	n, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer n.Close()

	require.NotNil(t, n.Chain())
	require.NotNil(t, n.Registry())
	require.Equal(t, uint32(1), n.Chain().NetworkID())
}

func TestNodeWithSqliteHistory(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.HistoryDB = config.HistoryDBConfig{Driver: "sqlite", DSN: ":memory:"}

	n, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer n.Close()

	require.NotNil(t, n.history)
}

func TestNodeRegistryRoundTrip(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	n, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer n.Close()

	ctx := context.Background()
	ids, err := n.Registry().List(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)

	_, err = n.Registry().Get(ctx, uuid.New())
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := openStore(config.NodeDBConfig{Type: "rocksdb"})
	require.ErrorIs(t, err, keyValueDb.ErrUnknownDriver)
}
