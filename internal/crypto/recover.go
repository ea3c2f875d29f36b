package crypto

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/dutchd/dutchd/internal/core/types"
)

// ErrInvalidSignature is returned when a compact signature cannot be
// recovered against a digest.
var ErrInvalidSignature = errors.New("invalid signature")

// CompactSignatureSize is the size of a recoverable compact signature:
// one recovery header byte plus 32-byte R and S values.
const CompactSignatureSize = 65

// RecoverAccountID recovers the signing account from a 65-byte compact
// signature over a 32-byte digest. Recovery rather than verification keeps
// signed messages free of an explicit signer field: whoever produced a
// valid signature is the account the engine acts for.
func RecoverAccountID(digest [32]byte, signature []byte) (types.AccountID, error) {
	if len(signature) != CompactSignatureSize {
		return types.ZeroAccount, ErrInvalidSignature
	}

	pubKey, _, err := ecdsa.RecoverCompact(signature, digest[:])
	if err != nil {
		return types.ZeroAccount, ErrInvalidSignature
	}

	return CalcAccountID(pubKey.SerializeCompressed()), nil
}
