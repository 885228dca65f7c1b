// Package secrets implements the symmetric encryption used for tenant
// secrets: Signer1 basic-auth passwords, persistent PINs and signer tokens
// are stored encrypted and decrypted on demand during a sign operation.
//
// Ciphertext layout is base64(salt || nonce || AES-256-GCM sealed data).
// The key is derived from the tenant passphrase with PBKDF2-SHA256, a fresh
// random salt per encryption.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	keySize    = 32
	kdfRounds  = 4096
	nonceBytes = 12
)

// ErrEmptyPlaintext is returned when encrypting an empty string, which the
// tenant configuration layer treats as "not configured".
var ErrEmptyPlaintext = errors.New("secrets: empty plaintext")

// DecryptFunc is the shape of the decrypt collaborator handed to the
// credential resolver and signing strategies.
type DecryptFunc func(string) (string, error)

// Cipher encrypts and decrypts tenant secrets with a shared passphrase.
type Cipher struct {
	passphrase []byte
}

// NewCipher returns a Cipher keyed by the given passphrase.
func NewCipher(passphrase string) *Cipher {
	return &Cipher{passphrase: []byte(passphrase)}
}

// Encrypt seals plaintext and returns a base64 token.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("secrets: salt: %w", err)
	}

	aead, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceBytes)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets: nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	buf := make([]byte, 0, saltSize+nonceBytes+len(sealed))
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = append(buf, sealed...)

	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decrypt unseals a token produced by Encrypt.
func (c *Cipher) Decrypt(token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("secrets: decode: %w", err)
	}
	if len(raw) < saltSize+nonceBytes+1 {
		return "", errors.New("secrets: ciphertext too short")
	}

	salt := raw[:saltSize]
	nonce := raw[saltSize : saltSize+nonceBytes]
	sealed := raw[saltSize+nonceBytes:]

	aead, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("secrets: open: %w", err)
	}

	return string(plaintext), nil
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.passphrase, salt, kdfRounds, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrets: cipher: %w", err)
	}

	return cipher.NewGCM(block)
}
