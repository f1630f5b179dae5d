package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

// KeySize is the AES-256 key length
const KeySize = 32

// ErrMalformed is returned when sealed data is too short to contain a nonce
var ErrMalformed = errors.New("crypto: malformed ciphertext")

// NewKey returns a random AES-256 key
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// encrypt encrypts data using AES-GCM and returns the ciphertext and nonce
func encrypt(key, plaintext []byte) ([]byte, []byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}


// Seal encrypts plaintext and returns nonce||ciphertext
func Seal(key, plaintext []byte) ([]byte, error) {
	ciphertext, nonce, err := encrypt(key, plaintext)
	if err != nil {
		return nil, err
	}
	return append(nonce, ciphertext...), nil
}

// Open reverses Seal
func Open(key, sealed []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	n := aesgcm.NonceSize()
	if len(sealed) < n {
		return nil, ErrMalformed
	}
	return aesgcm.Open(nil, sealed[:n], sealed[n:], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
