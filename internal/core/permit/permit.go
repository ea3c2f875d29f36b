// Package permit verifies off-band signed payment authorizations. A permit
// lets a bidder grant the auction instance a one-time token allowance with
// a single signed message instead of a separate pre-approval call.
//
// The signed digest is a domain-separated structured hash: the domain
// separator binds the signature to one auction instance on one network, and
// the struct hash binds the authorization fields. Neither a different
// instance nor a different network can replay it.
package permit

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/crypto"
)

var (
	// ErrExpired is returned when the permit deadline has passed.
	ErrExpired = errors.New("permit deadline has passed")
	// ErrBadSignature is returned when the signature is malformed or does
	// not recover to the permit owner.
	ErrBadSignature = errors.New("permit signature does not recover to owner")
)

var (
	domainTypeHash = crypto.Sha512Half([]byte("Domain(string name,uint32 networkId,address verifyingInstance)"))
	permitTypeHash = crypto.Sha512Half([]byte("Permit(address owner,address spender,uint64 value,uint64 nonce,uint64 deadline)"))
)

// Permit is a signed one-time payment authorization.
type Permit struct {
	Owner    types.AccountID
	Spender  types.AccountID
	Value    types.Amount
	Nonce    uint64
	Deadline time.Time

	// Signature is a 65-byte compact recoverable signature over Digest.
	Signature []byte
}

// Verifier checks permits addressed to one auction instance.
type Verifier struct {
	domainSeparator [32]byte
}

// NewVerifier builds a verifier whose domain separator is bound to the
// given instance account and network id.
func NewVerifier(instance types.AccountID, networkID uint32) *Verifier {
	buf := make([]byte, 0, 32+len("dutchd")+4+types.AccountIDSize)
	buf = append(buf, domainTypeHash[:]...)
	buf = append(buf, []byte("dutchd")...)
	buf = binary.BigEndian.AppendUint32(buf, networkID)
	buf = append(buf, instance[:]...)

	return &Verifier{domainSeparator: crypto.Sha512Half(buf)}
}

// DomainSeparator returns the instance-bound domain hash.
func (v *Verifier) DomainSeparator() [32]byte {
	return v.domainSeparator
}

// StructHash hashes the authorization fields of a permit.
func StructHash(p *Permit) [32]byte {
	buf := make([]byte, 0, 32+2*types.AccountIDSize+3*8)
	buf = append(buf, permitTypeHash[:]...)
	buf = append(buf, p.Owner[:]...)
	buf = append(buf, p.Spender[:]...)
	buf = binary.BigEndian.AppendUint64(buf, p.Value)
	buf = binary.BigEndian.AppendUint64(buf, p.Nonce)
	buf = binary.BigEndian.AppendUint64(buf, uint64(p.Deadline.Unix()))
	return crypto.Sha512Half(buf)
}

// Digest is what the owner signs: 0x19 0x01 ‖ domainSeparator ‖ structHash.
func (v *Verifier) Digest(p *Permit) [32]byte {
	sh := StructHash(p)

	buf := make([]byte, 0, 2+32+32)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, v.domainSeparator[:]...)
	buf = append(buf, sh[:]...)
	return crypto.Sha512Half(buf)
}

// Verify checks the deadline and that the signature recovers to the permit
// owner. Nonce freshness is state and is checked by the token ledger when
// the allowance is granted.
func (v *Verifier) Verify(p *Permit, now time.Time) error {
	if now.After(p.Deadline) {
		return ErrExpired
	}

	recovered, err := crypto.RecoverAccountID(v.Digest(p), p.Signature)
	if err != nil || recovered != p.Owner {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the digest of p for this verifier's instance and attaches
// the keypair's signature.
func (v *Verifier) Sign(p *Permit, key *crypto.Keypair) {
	p.Signature = key.SignRecoverable(v.Digest(p))
}
