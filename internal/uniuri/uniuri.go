package uniuri

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// StdLen is the length of identifiers, about 95 bits of entropy with StdChars.
	StdLen = 16
	// PasswordLen is the length of generated initial passwords.
	PasswordLen = 20
)

var (
	// StdChars are the characters of identifiers.
	StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

	// PasswordChars add punctuation that survives shells and copy-paste.
	PasswordChars = []byte("ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789-_.!%+") //nolint:gochecknoglobals

	// ErrCharset is returned for alphabets shorter than 2 or longer than 256 characters.
	ErrCharset = errors.New("uniuri: charset must hold between 2 and 256 characters")
)

// New returns an identifier of StdLen characters.
func New() (string, error) {
	return NewLenChars(StdLen, StdChars)
}

// Password returns a random initial password of PasswordLen characters.
func Password() (string, error) {
	return NewLenChars(PasswordLen, PasswordChars)
}

// NewLenChars returns a random string of length characters drawn uniformly from chars.
func NewLenChars(length int, chars []byte) (string, error) {
	n := len(chars)
	if n < 2 || n > 256 {
		return "", ErrCharset
	}

	// bytes at or above limit are rejected so every character is equally likely
	limit := 256 - (256 % n)
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/2+1) //nolint:mnd

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("uniuri: reading random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%n])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
