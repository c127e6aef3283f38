// Package vault seals and opens payloads with AES-256-GCM.
//
// Each Seal draws a fresh random nonce, so sealing the same value twice never
// yields the same IV or ciphertext. A Vault holds only its key and is safe for
// concurrent use.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required key length in bytes (AES-256)
const KeySize = 32

// ErrDecryption is returned when a blob cannot be opened: wrong key, tampered
// ciphertext, bad IV or a missing blob. Callers must treat it as "no data".
var ErrDecryption = errors.New("decryption failed")

// Blob is a sealed payload: the random IV plus the ciphertext it produced.
// Its JSON form is {"iv": "<hex>", "data": "<hex>"}.
type Blob struct {
	IV         []byte
	Ciphertext []byte
}

type blobJSON struct {
	IV   string `json:"iv"`
	Data string `json:"data"`
}

// MarshalJSON implements json.Marshaler
func (b Blob) MarshalJSON() ([]byte, error) {
	return json.Marshal(blobJSON{
		IV:   hex.EncodeToString(b.IV),
		Data: hex.EncodeToString(b.Ciphertext),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Blob) UnmarshalJSON(data []byte) error {
	var raw blobJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	iv, err := hex.DecodeString(raw.IV)
	if err != nil {
		return fmt.Errorf("invalid iv encoding: %w", err)
	}
	ciphertext, err := hex.DecodeString(raw.Data)
	if err != nil {
		return fmt.Errorf("invalid data encoding: %w", err)
	}
	b.IV = iv
	b.Ciphertext = ciphertext
	return nil
}

// Vault encrypts under one process-wide key
type Vault struct {
	aead cipher.AEAD
	rand io.Reader
}

// New creates a Vault. key must be exactly 32 bytes.
func New(key []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be exactly %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Vault{aead: gcm, rand: rand.Reader}, nil
}

// ParseKey accepts a key as 64 hex characters or as 32 raw characters
func ParseKey(s string) ([]byte, error) {
	if len(s) == hex.EncodedLen(KeySize) {
		if key, err := hex.DecodeString(s); err == nil {
			return key, nil
		}
	}
	if len(s) == KeySize {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("encryption key must be %d hex characters or %d raw characters", hex.EncodedLen(KeySize), KeySize)
}

// Seal serializes v to JSON and encrypts it under a fresh IV
func (v *Vault) Seal(value any) (*Blob, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}
	return v.SealBytes(plaintext)
}

// SealBytes encrypts raw bytes under a fresh IV
func (v *Vault) SealBytes(plaintext []byte) (*Blob, error) {
	iv := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(v.rand, iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	return &Blob{
		IV:         iv,
		Ciphertext: v.aead.Seal(nil, iv, plaintext, nil),
	}, nil
}

// OpenBytes decrypts a blob to its raw plaintext
func (v *Vault) OpenBytes(blob *Blob) ([]byte, error) {
	if blob == nil || len(blob.IV) != v.aead.NonceSize() {
		return nil, ErrDecryption
	}

	plaintext, err := v.aead.Open(nil, blob.IV, blob.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

// Open decrypts a blob and returns the JSON payload
func (v *Vault) Open(blob *Blob) (json.RawMessage, error) {
	plaintext, err := v.OpenBytes(blob)
	if err != nil {
		return nil, err
	}
	if !json.Valid(plaintext) {
		return nil, ErrDecryption
	}
	return json.RawMessage(plaintext), nil
}

// OpenInto decrypts a blob and decodes the payload into out
func (v *Vault) OpenInto(blob *Blob, out any) error {
	plaintext, err := v.OpenBytes(blob)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return nil
}
