package permit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/crypto"
)

func mustKeypair(t *testing.T, seed string) *crypto.Keypair {
	t.Helper()
	k, err := crypto.NewKeypairFromSeed([]byte(seed + "0123456789abcdef"))
	require.NoError(t, err)
	return k
}

func instanceID(b byte) types.AccountID {
	var id types.AccountID
	id[19] = b
	return id
}

func TestVerifySignedPermit(t *testing.T) {
	owner := mustKeypair(t, "owner")
	v := NewVerifier(instanceID(1), 42)
	now := time.Unix(1_700_000_000, 0)

	p := &Permit{
		Owner:    owner.AccountID(),
		Spender:  instanceID(1),
		Value:    500,
		Nonce:    0,
		Deadline: now.Add(time.Hour),
	}
	v.Sign(p, owner)

	require.NoError(t, v.Verify(p, now))
}

func TestVerifyExpired(t *testing.T) {
	owner := mustKeypair(t, "owner")
	v := NewVerifier(instanceID(1), 42)
	now := time.Unix(1_700_000_000, 0)

	p := &Permit{
		Owner:    owner.AccountID(),
		Spender:  instanceID(1),
		Value:    500,
		Deadline: now.Add(-time.Second),
	}
	v.Sign(p, owner)

	require.ErrorIs(t, v.Verify(p, now), ErrExpired)
}

func TestVerifyWrongSigner(t *testing.T) {
	owner := mustKeypair(t, "owner")
	mallory := mustKeypair(t, "mallory")
	v := NewVerifier(instanceID(1), 42)
	now := time.Unix(1_700_000_000, 0)

	p := &Permit{
		Owner:    owner.AccountID(),
		Spender:  instanceID(1),
		Value:    500,
		Deadline: now.Add(time.Hour),
	}
	v.Sign(p, mallory)

	require.ErrorIs(t, v.Verify(p, now), ErrBadSignature)
}

func TestVerifyTamperedFields(t *testing.T) {
	owner := mustKeypair(t, "owner")
	v := NewVerifier(instanceID(1), 42)
	now := time.Unix(1_700_000_000, 0)

	p := &Permit{
		Owner:    owner.AccountID(),
		Spender:  instanceID(1),
		Value:    500,
		Deadline: now.Add(time.Hour),
	}
	v.Sign(p, owner)

	p.Value = 50_000
	require.ErrorIs(t, v.Verify(p, now), ErrBadSignature)
}

func TestDomainSeparation(t *testing.T) {
	owner := mustKeypair(t, "owner")
	now := time.Unix(1_700_000_000, 0)

	v1 := NewVerifier(instanceID(1), 42)
	v2 := NewVerifier(instanceID(2), 42)
	v3 := NewVerifier(instanceID(1), 43)

	p := &Permit{
		Owner:    owner.AccountID(),
		Spender:  instanceID(1),
		Value:    500,
		Deadline: now.Add(time.Hour),
	}
	v1.Sign(p, owner)

	require.NoError(t, v1.Verify(p, now))

	// Same signature must not be replayable against another instance or
	// another network.
	require.ErrorIs(t, v2.Verify(p, now), ErrBadSignature)
	require.ErrorIs(t, v3.Verify(p, now), ErrBadSignature)
}

func TestVerifyMissingSignature(t *testing.T) {
	owner := mustKeypair(t, "owner")
	v := NewVerifier(instanceID(1), 42)
	now := time.Unix(1_700_000_000, 0)

	p := &Permit{
		Owner:    owner.AccountID(),
		Spender:  instanceID(1),
		Value:    500,
		Deadline: now.Add(time.Hour),
	}

	require.ErrorIs(t, v.Verify(p, now), ErrBadSignature)
}
