// Package asset implements the unique-asset collaborator: a minimal
// ownership registry for indivisible assets identified by numeric id.
package asset

import (
	"errors"
	"sync"

	"github.com/dutchd/dutchd/internal/core/types"
)

var (
	// ErrUnknownAsset is returned for ids that were never minted.
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrNotOwner is returned when the transferring account does not own
	// the asset.
	ErrNotOwner = errors.New("account does not own asset")
	// ErrAlreadyMinted is returned when minting an id twice.
	ErrAlreadyMinted = errors.New("asset already minted")
)

// Registry tracks which account owns each asset. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	owners map[uint64]types.AccountID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{owners: make(map[uint64]types.AccountID)}
}

// Mint records first ownership of an asset id.
func (r *Registry) Mint(id uint64, owner types.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[id]; ok {
		return ErrAlreadyMinted
	}
	r.owners[id] = owner
	return nil
}

// OwnerOf returns the current owner of an asset.
func (r *Registry) OwnerOf(id uint64) (types.AccountID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[id]
	if !ok {
		return types.ZeroAccount, ErrUnknownAsset
	}
	return owner, nil
}

// Transfer moves an asset from its current owner to another account.
func (r *Registry) Transfer(from, to types.AccountID, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[id]
	if !ok {
		return ErrUnknownAsset
	}
	if owner != from {
		return ErrNotOwner
	}
	r.owners[id] = to
	return nil
}
