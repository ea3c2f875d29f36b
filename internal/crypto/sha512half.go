package crypto

import "crypto/sha512"

// Sha512Half returns the first 32 bytes of the SHA-512 hash of msg. It is
// the digest primitive for account derivation and permit signing.
func Sha512Half(msg []byte) [32]byte {
	h := sha512.Sum512(msg)
	var half [32]byte
	copy(half[:], h[:32])
	return half
}
