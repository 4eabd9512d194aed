package finance

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"finboard-server/src/db"
)

const nonceSize = 24

// CursorCodec seals store resume keys into opaque tokens bound to the query
// scope that produced them.
type CursorCodec struct {
	key [32]byte
}

type cursorPayload struct {
	Scope string `json:"s"`
	Key   db.Key `json:"k"`
}

// NewCursorCodec derives the sealing key from secret. An empty secret yields
// a random key, so cursors stop working when the process restarts.
func NewCursorCodec(secret string) (*CursorCodec, error) {
	c := &CursorCodec{}
	if secret == "" {
		if _, err := io.ReadFull(rand.Reader, c.key[:]); err != nil {
			return nil, fmt.Errorf("generate cursor key: %w", err)
		}
		return c, nil
	}
	c.key = sha256.Sum256([]byte(secret))
	return c, nil
}

func (c *CursorCodec) Encode(scope string, key db.Key) (string, error) {
	plain, err := json.Marshal(cursorPayload{Scope: scope, Key: key})
	if err != nil {
		return "", err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate cursor nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens token and checks it was issued for scope.
func (c *CursorCodec) Decode(scope, token string) (db.Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return db.Key{}, ErrInvalidCursor
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return db.Key{}, ErrInvalidCursor
	}
	var p cursorPayload
	if err := json.Unmarshal(plain, &p); err != nil {
		return db.Key{}, ErrInvalidCursor
	}
	if p.Scope != scope || p.Key.PK == "" {
		return db.Key{}, fmt.Errorf("%w: issued for a different scope", ErrInvalidCursor)
	}
	return p.Key, nil
}
