package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	stored, err := HashPassword("hunter22")
	require.NoError(t, err)

	saltHex, hashHex, ok := strings.Cut(stored, ":")
	require.True(t, ok, "stored hash must be salt_hex:hash_hex")
	assert.Len(t, saltHex, 32) // 16-byte salt
	assert.Len(t, hashHex, 64) // 32-byte derived key

	assert.True(t, VerifyPassword("hunter22", stored))
	assert.False(t, VerifyPassword("hunter23", stored))
	assert.False(t, VerifyPassword("", stored))
}

func TestHashPassword_SaltRandomized(t *testing.T) {
	a, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	b, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two hashes of the same password must differ")
	assert.True(t, VerifyPassword("correct horse battery staple", a))
	assert.True(t, VerifyPassword("correct horse battery staple", b))
}

func TestVerifyPassword_MalformedStored(t *testing.T) {
	cases := []string{
		"",
		"no-separator",
		"deadbeef",                // no colon
		":deadbeef",               // empty salt
		"deadbeef:",               // empty hash
		"nothex:deadbeef",         // bad salt hex
		"deadbeef:nothex",         // bad hash hex
		"deadbeef:deadbeef:extra", // trailing colon content folds into hash part
	}
	for _, stored := range cases {
		assert.False(t, VerifyPassword("whatever", stored), "stored=%q", stored)
	}
}

func TestNewOpaqueID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewOpaqueID()
		require.NoError(t, err)
		assert.Len(t, id, 32)
		assert.False(t, seen[id], "opaque ids must not repeat")
		seen[id] = true
	}
}
