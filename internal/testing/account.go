package testing

import (
	"testing"

	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/crypto"
)

// Account is a named, key-backed participant. The keypair lets token
// bidders sign permits the way wallets do.
type Account struct {
	Name    string
	Keypair *crypto.Keypair
	ID      types.AccountID
}

// NewAccount derives a deterministic account from its name, so repeated
// runs see stable ids.
func NewAccount(t *testing.T, name string) *Account {
	t.Helper()

	seed := make([]byte, 0, 16+len(name))
	seed = append(seed, []byte("dutchd-test-acct")...)
	seed = append(seed, name...)
	keypair, err := crypto.NewKeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("Failed to derive account %q: %v", name, err)
	}
	return &Account{
		Name:    name,
		Keypair: keypair,
		ID:      keypair.AccountID(),
	}
}
