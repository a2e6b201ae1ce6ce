package jwt

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Purpose strings for HKDF key derivation. Distinct info strings guarantee
// the signing and encryption keys differ even when derived from one secret.
const (
	purposeSigning    = "authkit signing key"
	purposeEncryption = "authkit encryption key"
)

// keySize is 32 bytes: HMAC-SHA256 signing and AES-256 encryption.
const keySize = 32

// DeriveKey derives a size-byte key from secret for the given purpose using
// HKDF-SHA256 with an empty salt. It is a pure function: the same inputs
// always produce the same key.
func DeriveKey(secret []byte, purpose string, size int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	r := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	key := make([]byte, size)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}
	return key, nil
}
