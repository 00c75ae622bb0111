package vault

import "errors"

var (
	// ErrEmptyMasterKey is returned when the vault is constructed without a master secret.
	ErrEmptyMasterKey = errors.New("vault master key can not be empty")

	// ErrDecryptionFailed is returned when a sealed token does not authenticate,
	// either because it was corrupted or sealed under another master secret.
	ErrDecryptionFailed = errors.New("credential decryption failed")
)
