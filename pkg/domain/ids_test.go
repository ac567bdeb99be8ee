package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "verifyx/pkg/domain-errors"
)

// TestParseUUID_Invariants validates that IDs accepted at trust boundaries are
// non-empty, well-formed, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseVerificationID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseDocumentID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

func TestParseWalletAddress(t *testing.T) {
	t.Run("normalizes to lower case", func(t *testing.T) {
		addr, err := ParseWalletAddress("0xAbC0000000000000000000000000000000000dEf")
		require.NoError(t, err)
		assert.Equal(t, WalletAddress("0xabc0000000000000000000000000000000000def"), addr)
		assert.Equal(t, "did:ethr:0xabc0000000000000000000000000000000000def", addr.DefaultDID())
		assert.Equal(t, "0xabc0...0def", addr.Short())
	})

	t.Run("rejects malformed address", func(t *testing.T) {
		_, err := ParseWalletAddress("0x1234")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects empty address", func(t *testing.T) {
		_, err := ParseWalletAddress("  ")
		require.Error(t, err)
	})
}

func TestIDsEncodeAsStrings(t *testing.T) {
	userID := NewUserID()
	raw, err := json.Marshal(struct {
		User UserID `json:"user"`
	}{userID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"`+userID.String()+`"}`, string(raw))

	var decoded struct {
		User UserID `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, userID, decoded.User)

	assert.Error(t, json.Unmarshal([]byte(`{"user":"nope"}`), &decoded))
}
