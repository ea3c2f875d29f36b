// Package node assembles a running dutchd instance from configuration:
// the chain clock, the payment and asset ledgers, the snapshot store,
// the auction registry, and the RPC surfaces.
package node

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dutchd/dutchd/internal/chain"
	"github.com/dutchd/dutchd/internal/config"
	"github.com/dutchd/dutchd/internal/core/asset"
	"github.com/dutchd/dutchd/internal/core/token"
	"github.com/dutchd/dutchd/internal/registry"
	"github.com/dutchd/dutchd/internal/rpc"
	"github.com/dutchd/dutchd/internal/storage/historydb"
	"github.com/dutchd/dutchd/internal/storage/keyValueDb"
	"github.com/dutchd/dutchd/internal/storage/keyValueDb/leveldb"
	"github.com/dutchd/dutchd/internal/storage/keyValueDb/memory"
	"github.com/dutchd/dutchd/internal/storage/keyValueDb/pebble"
)

// Node is a fully wired dutchd instance.
type Node struct {
	cfg *config.Config

	chain    *chain.Chain
	balances *chain.Balances
	tokens   *token.Ledger
	assets   *asset.Registry

	store    keyValueDb.DB
	history  *historydb.DB
	registry *registry.Registry

	wsServer  *rpc.WebSocketServer
	publisher *rpc.Publisher

	httpListener *http.Server
	wsListener   *http.Server
}

// New builds a node from the configuration. The caller owns Close.
func New(ctx context.Context, cfg *config.Config) (*Node, error) {
	n := &Node{
		cfg:      cfg,
		chain:    chain.New(cfg.Chain.NetworkID, time.Now()),
		balances: chain.NewBalances(),
		tokens:   token.NewLedger(),
		assets:   asset.NewRegistry(),
	}

	store, err := openStore(cfg.NodeDB)
	if err != nil {
		return nil, fmt.Errorf("open node_db: %w", err)
	}
	n.store = store

	if cfg.HistoryDB.Driver != "" {
		history, err := historydb.Open(ctx, cfg.HistoryDB.Driver, cfg.HistoryDB.DSN)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("open history_db: %w", err)
		}
		n.history = history
	}

	services := &rpc.Services{
		Chain:      n.chain,
		Balances:   n.balances,
		Started:    time.Now(),
		Standalone: cfg.Chain.Standalone,
	}
	n.wsServer = rpc.NewWebSocketServer(services, cfg.Server.RPCTimeout())
	n.publisher = rpc.NewPublisher(n.wsServer.Subscriptions())

	reg, err := registry.New(registry.Config{
		Chain:     n.chain,
		Balances:  n.balances,
		Tokens:    n.tokens,
		Assets:    n.assets,
		Store:     n.store,
		History:   n.history,
		Events:    n.publisher,
		CacheSize: cfg.AuctionCacheSize,
	})
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("build registry: %w", err)
	}
	n.registry = reg
	services.Registry = reg
	services.History = n.history

	httpMux := http.NewServeMux()
	httpMux.Handle("/", rpc.NewServer(services, cfg.Server.RPCTimeout()))
	httpMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"dutchd"}`))
	})
	n.httpListener = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.RPCHost, cfg.Server.RPCPort),
		Handler: httpMux,
	}

	wsMux := http.NewServeMux()
	wsMux.Handle("/", n.wsServer)
	n.wsListener = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.WSHost, cfg.Server.WSPort),
		Handler: wsMux,
	}

	return n, nil
}

// Chain exposes the node's block clock.
func (n *Node) Chain() *chain.Chain {
	return n.chain
}

// Registry exposes the node's auction registry.
func (n *Node) Registry() *registry.Registry {
	return n.registry
}

// Run serves until ctx is cancelled, then shuts the listeners down.
func (n *Node) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Printf("JSON-RPC listening on %s", n.httpListener.Addr)
		if err := n.httpListener.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		log.Printf("WebSocket listening on %s", n.wsListener.Addr)
		if err := n.wsListener.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if !n.cfg.Chain.Standalone {
		group.Go(func() error {
			err := n.chain.Run(ctx, n.cfg.Chain.BlockInterval(), func(env chain.Context) {
				n.publisher.PublishBlock(env.Height, env.CloseTime)
			})
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n.httpListener.Shutdown(shutdownCtx)
		n.wsListener.Shutdown(shutdownCtx)
		return nil
	})

	return group.Wait()
}

// Close releases the node's storage handles.
func (n *Node) Close() error {
	var firstErr error
	if n.history != nil {
		if err := n.history.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if n.store != nil {
		if err := n.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openStore opens the configured snapshot backend.
func openStore(cfg config.NodeDBConfig) (keyValueDb.DB, error) {
	switch cfg.Type {
	case keyValueDb.DriverMemory:
		return memory.New(), nil
	case keyValueDb.DriverPebble:
		return pebble.Open(cfg.Path)
	case keyValueDb.DriverLevelDB:
		return leveldb.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %s", keyValueDb.ErrUnknownDriver, cfg.Type)
	}
}
