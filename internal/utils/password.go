package utils // helpers for password hashing and opaque identifier generation

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. The iteration count is the brute-force knob; changing it
// only affects newly hashed passwords because the salt and key length are
// recovered from the stored string on verify.
const (
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 32
	saltLen          = 16
	opaqueIDLen      = 16 // 128 bits
)

// HashPassword derives a PBKDF2-HMAC-SHA256 key from the password under a
// fresh random salt and returns it as "salt_hex:hash_hex". The only failure
// mode is entropy-source exhaustion.
func HashPassword(plain string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(plain), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword re-derives the key from the stored salt and compares it to
// the stored key in constant time. Malformed stored values verify false;
// this function never errors so callers have a single rejection path.
func VerifyPassword(plain, stored string) bool {
	saltHex, hashHex, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := hex.DecodeString(hashHex)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(plain), salt, pbkdf2Iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// NewOpaqueID returns a 32-char hex string from 128 bits of secure
// randomness. Used for account, session and audit identifiers; unpredictable
// enough to resist enumeration without being a security boundary itself.
func NewOpaqueID() (string, error) {
	buf := make([]byte, opaqueIDLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
