// Package secure seals the persisted blobs. The key is compiled in: this is
// obfuscation of local data at rest, not a trust boundary, and the product
// treats it as such. What matters is that a corrupt or tampered blob fails to
// open so callers can degrade to an empty value.
package secure

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const defaultPassphrase = "gold-digger-logical-secret-key-2024"

// Codec seals and opens JSON payloads.
type Codec struct {
	key []byte
}

// NewCodec returns a codec keyed from the given passphrase. An empty
// passphrase selects the built-in product key.
func NewCodec(passphrase string) *Codec {
	if passphrase == "" {
		passphrase = defaultPassphrase
	}
	key := sha256.Sum256([]byte(passphrase))
	return &Codec{key: key[:]}
}

// Seal marshals v to JSON and encrypts it. The nonce is prepended to the
// returned blob.
func (c *Codec) Seal(v any) ([]byte, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

// Open decrypts a sealed blob and unmarshals it into v. It fails on short,
// corrupt, or tampered input.
func (c *Codec) Open(blob []byte, v any) error {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}
	if len(blob) < aead.NonceSize() {
		return fmt.Errorf("sealed blob too short: %d bytes", len(blob))
	}
	nonce, sealed := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return fmt.Errorf("open sealed blob: %w", err)
	}
	if err := json.Unmarshal(plain, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}
