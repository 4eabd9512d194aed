package finance

import (
	"errors"
	"strings"
	"testing"

	"finboard-server/src/db"
)

func TestCursorCodec(t *testing.T) {
	codec, err := NewCursorCodec("s3cret")
	if err != nil {
		t.Fatalf("NewCursorCodec() error = %v", err)
	}
	key := db.Key{PK: "ACCOUNT#a1", SK: "TXN#2024-03-01#t1", GSI1PK: "USER#u1", GSI1SK: "TXN#2024-03-01#t1"}

	token, err := codec.Encode("user:u1", key)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if strings.Contains(token, "ACCOUNT") || strings.ContainsAny(token, "+/=") {
		t.Errorf("token %q is not opaque URL-safe text", token)
	}

	got, err := codec.Decode("user:u1", token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != key {
		t.Errorf("Decode() = %+v, want %+v", got, key)
	}

	again, _ := codec.Encode("user:u1", key)
	if again == token {
		t.Error("two encodings of the same key are identical, nonce not random")
	}

	tampered := []byte(token)
	tampered[len(tampered)/2] ^= 1

	tests := []struct {
		name  string
		scope string
		token string
	}{
		{"wrong scope", "user:u2", token},
		{"tampered", "user:u1", string(tampered)},
		{"truncated", "user:u1", token[:10]},
		{"empty", "user:u1", ""},
		{"not base64", "user:u1", "!!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.Decode(tt.scope, tt.token); !errors.Is(err, ErrInvalidCursor) {
				t.Errorf("Decode() error = %v, want ErrInvalidCursor", err)
			}
		})
	}
}

func TestCursorCodec_SecretBinding(t *testing.T) {
	a, _ := NewCursorCodec("one")
	b, _ := NewCursorCodec("one")
	c, _ := NewCursorCodec("two")
	random1, _ := NewCursorCodec("")
	random2, _ := NewCursorCodec("")

	token, err := a.Encode("user:u1", db.Key{PK: "p", SK: "s"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if _, err := b.Decode("user:u1", token); err != nil {
		t.Errorf("codec with the same secret rejected token: %v", err)
	}
	if _, err := c.Decode("user:u1", token); !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("codec with another secret: error = %v, want ErrInvalidCursor", err)
	}

	token, _ = random1.Encode("user:u1", db.Key{PK: "p", SK: "s"})
	if _, err := random2.Decode("user:u1", token); !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("independent random keys accepted each other's token: %v", err)
	}
}
