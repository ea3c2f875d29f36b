package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccountIDRoundTrip(t *testing.T) {
	var id AccountID
	for i := range id {
		id[i] = byte(i + 1)
	}

	parsed, err := ParseAccountID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	// Bare hex without the 0x prefix parses too.
	parsed, err = ParseAccountID(id.String()[2:])
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseAccountIDErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "0xdeadbeef"},
		{"too long", "0x" + string(make([]byte, 42))},
		{"not hex", "0xzz00000000000000000000000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccountID(tt.input)
			require.ErrorIs(t, err, ErrBadAccountID)
		})
	}
}

func TestAccountIDZero(t *testing.T) {
	var id AccountID
	require.True(t, id.IsZero())

	id[19] = 1
	require.False(t, id.IsZero())
}

func TestAccountIDFromBytes(t *testing.T) {
	raw := make([]byte, AccountIDSize)
	raw[0] = 0xab
	require.Equal(t, byte(0xab), AccountIDFromBytes(raw)[0])

	// Wrong length yields the zero account.
	require.True(t, AccountIDFromBytes(raw[:19]).IsZero())
}
