// Package crypto encrypts small secrets at rest with AES-256-GCM.
//
// Voice channel passwords are stored through it when a channel secret key
// is configured. Every Encrypt call draws a fresh 12-byte nonce, so equal
// plaintexts produce different ciphertexts.
//
// Stored passwords are write-only: nothing in the server reads them back,
// clients only see has_password.
//
//	key, _ := crypto.DeriveKey("<64 hex chars>")
//	sealed, _ := crypto.Encrypt("hunter2", key)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// Prefix marks a stored value as ciphertext produced by Encrypt.
const Prefix = "enc:"

// DeriveKey decodes a 64 character hex string into a 32-byte key.
func DeriveKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be exactly 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

// Encrypt seals plaintext and returns Prefix + base64(nonce || ciphertext).
func Encrypt(plaintext string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce generation: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
