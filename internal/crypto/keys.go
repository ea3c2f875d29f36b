package crypto

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/dutchd/dutchd/internal/core/types"
)

var (
	// ErrInvalidPrivateKey is returned when the private key is invalid
	ErrInvalidPrivateKey = errors.New("invalid private key")
	// ErrShortSeed is returned when a key seed is too short
	ErrShortSeed = errors.New("seed must be at least 16 bytes")
)

// Keypair holds a secp256k1 keypair. Bidders sign permit digests with it and
// the engine identifies them by the account ID of the public key.
type Keypair struct {
	privateKey *btcec.PrivateKey
	publicKey  *btcec.PublicKey
}

// NewKeypair creates a new random keypair.
func NewKeypair() (*Keypair, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	return &Keypair{
		privateKey: privateKey,
		publicKey:  privateKey.PubKey(),
	}, nil
}

// NewKeypairFromSeed derives a deterministic keypair from a seed of at
// least 16 bytes. The private key is the first half of SHA-512(seed).
func NewKeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) < 16 {
		return nil, ErrShortSeed
	}

	h := sha512.New()
	h.Write(seed)
	hash := h.Sum(nil)

	privateKey, _ := btcec.PrivKeyFromBytes(hash[:32])

	return &Keypair{
		privateKey: privateKey,
		publicKey:  privateKey.PubKey(),
	}, nil
}

// NewKeypairFromPrivateKey creates a keypair from a hex-encoded private key.
func NewKeypairFromPrivateKey(privKeyHex string) (*Keypair, error) {
	if len(privKeyHex) == 0 {
		return nil, ErrInvalidPrivateKey
	}

	raw, err := hex.DecodeString(privKeyHex)
	if err != nil || len(raw) != 32 {
		return nil, ErrInvalidPrivateKey
	}

	privateKey, _ := btcec.PrivKeyFromBytes(raw)

	return &Keypair{
		privateKey: privateKey,
		publicKey:  privateKey.PubKey(),
	}, nil
}

// AccountID returns the account identifier of the public key.
func (k *Keypair) AccountID() types.AccountID {
	return CalcAccountID(k.publicKey.SerializeCompressed())
}

// PublicKey returns the compressed serialized public key (33 bytes).
func (k *Keypair) PublicKey() []byte {
	return k.publicKey.SerializeCompressed()
}

// SignRecoverable signs a 32-byte digest and returns a 65-byte compact
// recoverable signature: one recovery header byte followed by R and S.
// The signer's public key, and therefore its account, can be recovered
// from the signature and the digest alone.
func (k *Keypair) SignRecoverable(digest [32]byte) []byte {
	return ecdsa.SignCompact(k.privateKey, digest[:], true)
}
