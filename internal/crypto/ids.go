package crypto

import (
	"crypto/sha256"

	"github.com/decred/dcrd/crypto/ripemd160"

	"github.com/dutchd/dutchd/internal/core/types"
)

// CalcAccountID computes the account ID from a public key.
// The account ID is a 160-bit identifier computed as RIPEMD160(SHA256(publicKey)).
//
// This follows Bitcoin's approach for address derivation to avoid:
//   - Length extension attacks (by using two different hashes)
//   - The only hash generally considered safe at 160 bits is RIPEMD160
//
// The entire serialized public key, including the compression prefix,
// is hashed.
func CalcAccountID(publicKey []byte) types.AccountID {
	sha256Hash := sha256.Sum256(publicKey)

	ripemd160Hasher := ripemd160.New()
	ripemd160Hasher.Write(sha256Hash[:])
	ripemd160Hash := ripemd160Hasher.Sum(nil)

	var result types.AccountID
	copy(result[:], ripemd160Hash)
	return result
}
