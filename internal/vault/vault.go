// Package vault seals directory and mail relay credentials before they are stored.
//
// Tokens are base64(version || nonce || AES-256-GCM ciphertext). The AES key is
// derived once from the master secret with HKDF-SHA256 and never leaves the Vault.
//
// Open accepts values that do not look like a token and returns them unchanged.
// This keeps rows written before sealing was introduced readable until
// "supplyconnect vault migrate" has rewritten them. It is a compatibility shim and
// no security boundary: a long base64 plaintext starting with the version byte is
// mistaken for a token and opens to "".
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/hkdf"
)

const (
	tokenVersion byte = 0x01
	keySize           = 32
	keyInfo           = "supplyconnect credential vault v1"
)

// Vault seals and opens credentials with a key derived from one master secret.
// A Vault is safe for concurrent use.
type Vault struct {
	aead cipher.AEAD
}

// New derives the vault key from masterSecret.
func New(masterSecret string) (*Vault, error) {
	if masterSecret == "" {
		return nil, ErrEmptyMasterKey
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(masterSecret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive vault key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Seal encrypts plaintext with a fresh random nonce. Empty input yields "".
func (v *Vault) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}

	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+v.aead.Overhead())
	out = append(out, tokenVersion)
	out = append(out, nonce...)
	out = v.aead.Seal(out, nonce, []byte(plaintext), []byte{tokenVersion})

	return base64.StdEncoding.EncodeToString(out), nil
}

// Open returns the plaintext of token.
//
// "" opens to "". Values that do not look sealed are returned unchanged.
// Tokens that fail authentication open to "" and the failure is logged; callers
// must treat "" as unknown and ask for the credential again.
func (v *Vault) Open(token string) string {
	plaintext, err := v.OpenStrict(token)
	if err != nil {
		log.Warn().Err(err).Msg("stored credential could not be opened")
		return ""
	}

	return plaintext
}

// OpenStrict is Open but reports ErrDecryptionFailed instead of returning "".
func (v *Vault) OpenStrict(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	raw, ok := v.decode(token)
	if !ok {
		return token, nil
	}

	nonceSize := v.aead.NonceSize()
	nonce := raw[1 : 1+nonceSize]

	plaintext, err := v.aead.Open(nil, nonce, raw[1+nonceSize:], raw[:1])
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// LooksSealed reports whether s has the shape of a token produced by Seal.
func (v *Vault) LooksSealed(s string) bool {
	_, ok := v.decode(s)
	return ok
}

// EnsureSealed seals s unless it already looks sealed.
func (v *Vault) EnsureSealed(s string) (string, bool, error) {
	if s == "" || v.LooksSealed(s) {
		return s, false, nil
	}

	sealed, err := v.Seal(s)
	if err != nil {
		return "", false, err
	}

	return sealed, true, nil
}

func (v *Vault) decode(s string) ([]byte, bool) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}

	if len(raw) < 1+v.aead.NonceSize()+v.aead.Overhead() || raw[0] != tokenVersion {
		return nil, false
	}

	return raw, true
}
