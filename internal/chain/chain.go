// Package chain models the hosting substrate the engine runs on: a block
// height counter, a wall-clock close time, and the native-currency balance
// table. Production nodes advance it on a ticker; tests advance it by hand.
package chain

import (
	"context"
	"sync"
	"time"

	"github.com/dutchd/dutchd/internal/core/types"
)

// Context is the execution context a single operation observes: the block
// height driving price decay and expiry, the close time permits are checked
// against, and the network the instance is bound to.
type Context struct {
	Height    types.BlockHeight
	CloseTime time.Time
	NetworkID uint32
}

// Chain is the progress source. Height only moves forward.
type Chain struct {
	mu        sync.RWMutex
	height    types.BlockHeight
	closeTime time.Time
	networkID uint32
}

// New creates a chain at height 0 with the given genesis close time.
func New(networkID uint32, genesis time.Time) *Chain {
	return &Chain{closeTime: genesis, networkID: networkID}
}

// Context returns the current execution context.
func (c *Chain) Context() Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Context{Height: c.height, CloseTime: c.closeTime, NetworkID: c.networkID}
}

// Height returns the current block height.
func (c *Chain) Height() types.BlockHeight {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// NetworkID returns the chain's network identifier.
func (c *Chain) NetworkID() uint32 {
	return c.networkID
}

// Advance moves the height forward by n blocks and the close time by the
// given duration per block.
func (c *Chain) Advance(n types.BlockHeight, perBlock time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += n
	c.closeTime = c.closeTime.Add(time.Duration(n) * perBlock)
}

// SetCloseTime pins the close time without moving the height.
func (c *Chain) SetCloseTime(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeTime = t
}

// Run advances one block per interval until the context is cancelled. Each
// tick also snaps the close time to the wall clock. onBlock, when non-nil,
// observes the context of every new block.
func (c *Chain) Run(ctx context.Context, interval time.Duration, onBlock func(Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			c.mu.Lock()
			c.height++
			c.closeTime = now
			env := Context{Height: c.height, CloseTime: c.closeTime, NetworkID: c.networkID}
			c.mu.Unlock()
			if onBlock != nil {
				onBlock(env)
			}
		}
	}
}
