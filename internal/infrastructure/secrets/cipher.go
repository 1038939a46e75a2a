// Package secrets provides the cipher used to protect integration credential
// material at rest. The cipher is an explicit value injected into the
// credential repository at construction so tests can supply a fixed key.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required cipher key length (AES-256)
const KeySize = 32

var (
	// ErrInvalidKeySize is returned when the key is not 32 bytes
	ErrInvalidKeySize = errors.New("secrets: key must be 32 bytes")
	// ErrCiphertextTooShort is returned when a sealed value is truncated
	ErrCiphertextTooShort = errors.New("secrets: ciphertext too short")
)

// SecretCipher seals and opens credential secrets with AES-256-GCM and
// derives lookup keys with HMAC-SHA-256 over the same key material.
type SecretCipher struct {
	aead    cipher.AEAD
	hmacKey []byte
}

// NewSecretCipher creates a cipher from a 32-byte key
func NewSecretCipher(key []byte) (*SecretCipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to create GCM: %w", err)
	}

	hmacKey := make([]byte, KeySize)
	copy(hmacKey, key)

	return &SecretCipher{aead: aead, hmacKey: hmacKey}, nil
}

// Seal encrypts a secret. The random nonce is prepended to the ciphertext.
func (c *SecretCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("secrets: failed to generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a sealed secret
func (c *SecretCipher) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < c.aead.NonceSize() {
		return nil, ErrCiphertextTooShort
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// DeriveLookupKey returns the hex HMAC of a public credential part (API key
// or username). Credential resolution indexes on this value so it never scans
// stored secrets.
func (c *SecretCipher) DeriveLookupKey(public string) string {
	mac := hmac.New(sha256.New, c.hmacKey)
	mac.Write([]byte(public))
	return hex.EncodeToString(mac.Sum(nil))
}

// Compare reports whether two secrets match in constant time
func Compare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
