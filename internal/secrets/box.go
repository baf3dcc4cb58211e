// Package secrets seals mailbox refresh credentials before they reach the
// database, so a leaked dump does not hand out live provider access.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Box encrypts and decrypts small secrets with XChaCha20-Poly1305.
type Box struct {
	key []byte
}

// NewBox derives a sealing key from the configured credential key string.
func NewBox(credentialKey string) (*Box, error) {
	if credentialKey == "" {
		return nil, fmt.Errorf("credential key is not configured")
	}
	sum := sha256.Sum256([]byte(credentialKey))
	return &Box{key: sum[:]}, nil
}

// Seal encrypts plaintext, prepending the random nonce to the ciphertext.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed credential too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open sealed credential: %w", err)
	}
	return plaintext, nil
}

// SealString is a convenience wrapper for string secrets.
func (b *Box) SealString(s string) ([]byte, error) {
	return b.Seal([]byte(s))
}

// OpenString is a convenience wrapper for string secrets.
func (b *Box) OpenString(sealed []byte) (string, error) {
	plain, err := b.Open(sealed)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
