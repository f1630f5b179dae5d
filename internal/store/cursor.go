package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/teresa-solution/tenant-order-service/internal/crypto"
)

// CursorCodec turns a backend's "continue from here" key into an opaque token.
// The key is JSON encoded, sealed with AES-GCM and base64url encoded, so
// callers can neither read nor forge positions.
type CursorCodec struct {
	key []byte
}

// NewCursorCodec creates a codec. A nil key generates a random one, which
// makes cursors valid for the lifetime of the process only.
func NewCursorCodec(key []byte) (*CursorCodec, error) {
	if len(key) == 0 {
		k, err := crypto.NewKey()
		if err != nil {
			return nil, err
		}
		key = k
	}
	if len(key) != crypto.KeySize {
		return nil, fmt.Errorf("cursor key must be %d bytes, got %d", crypto.KeySize, len(key))
	}
	return &CursorCodec{key: key}, nil
}

// Encode seals position
func (c *CursorCodec) Encode(position any) (string, error) {
	raw, err := json.Marshal(position)
	if err != nil {
		return "", err
	}
	sealed, err := crypto.Seal(c.key, raw)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens cursor into position. Any failure is ErrInvalidCursor.
func (c *CursorCodec) Decode(cursor string, position any) error {
	sealed, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	raw, err := crypto.Open(c.key, sealed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(raw, position); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return nil
}

// checkScope rejects a cursor that another listing issued. Every position
// carries the scope of the listing it continues.
func checkScope(got, want string) error {
	if got != want {
		return fmt.Errorf("%w: issued for another listing", ErrInvalidCursor)
	}
	return nil
}
