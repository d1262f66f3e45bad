package cryptox

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/cipherdesk/cipherdesk/internal/common"
)

const (
	// FieldVersion is the current EncryptedData format revision.
	FieldVersion = 1

	// MaxPlaintextSize bounds a single field's serialized plaintext before
	// encryption, to bound storage and reject pathological inputs.
	MaxPlaintextSize = 100 * 1024
)

// EncryptedData is the universal at-rest representation of any plaintext
// field. The {iv, ciphertext, version} triple is the only wire contract
// that must remain stable across implementations.
type EncryptedData struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Version    int    `json:"version"`
}

// EncryptField serializes v to JSON and AEAD-encrypts it under the master
// key with a fresh IV. IV reuse under the same key breaks GCM, so every
// call draws a new one.
//
// Example:
//
//	contact := Contact{Name: "Alice", Email: "alice@example.com"}
//	data, err := cryptox.EncryptField(contact, masterKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// data.IV, data.Ciphertext, data.Version are safe to persist anywhere.
func EncryptField(v any, masterKey []byte) (*EncryptedData, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(plaintext) > MaxPlaintextSize {
		return nil, fmt.Errorf("%w: %d bytes", common.ErrPayloadTooLarge, len(plaintext))
	}

	aesgcm, err := newGCM(masterKey)
	if err != nil {
		return nil, err
	}

	iv := common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext := aesgcm.Seal(nil, iv, plaintext, nil)

	return &EncryptedData{
		IV:         base64.StdEncoding.EncodeToString(iv),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Version:    FieldVersion,
	}, nil
}

// DecryptField AEAD-decrypts d under the master key and unmarshals the
// plaintext JSON into v.
//
// Fails closed: an unrecognized version returns common.ErrUnsupportedVersion
// before any cipher work; malformed encoding or an authentication-tag
// mismatch returns common.ErrDecryptFailed. Garbage is never returned.
func DecryptField(d *EncryptedData, masterKey []byte, v any) error {
	if d.Version != FieldVersion {
		return fmt.Errorf("%w: field version %d", common.ErrUnsupportedVersion, d.Version)
	}

	iv, err := base64.StdEncoding.DecodeString(d.IV)
	if err != nil {
		return fmt.Errorf("%w: malformed iv", common.ErrDecryptFailed)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(d.Ciphertext)
	if err != nil {
		return fmt.Errorf("%w: malformed ciphertext", common.ErrDecryptFailed)
	}

	aesgcm, err := newGCM(masterKey)
	if err != nil {
		return err
	}
	if len(iv) != aesgcm.NonceSize() {
		return fmt.Errorf("%w: bad iv length", common.ErrDecryptFailed)
	}

	plaintext, err := aesgcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return common.ErrDecryptFailed
	}

	return json.Unmarshal(plaintext, v)
}

// DecryptFields decrypts an ordered sequence of rows fail-fast: the first
// failure aborts the whole batch. Output order matches input order.
// Single-record editors prefer this mode.
func DecryptFields[T any](rows []*EncryptedData, masterKey []byte) ([]T, error) {
	out := make([]T, len(rows))
	for i, row := range rows {
		if err := DecryptField(row, masterKey, &out[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

// FieldResult is one item of a partial-success batch decryption.
type FieldResult[T any] struct {
	Value T
	Err   error
}

// DecryptFieldsPartial decrypts an ordered sequence of rows, tagging each
// item with its own error instead of failing the batch. Output order
// matches input order. List views prefer this mode so one corrupted row
// does not blank the entire list.
func DecryptFieldsPartial[T any](rows []*EncryptedData, masterKey []byte) []FieldResult[T] {
	out := make([]FieldResult[T], len(rows))
	for i, row := range rows {
		out[i].Err = DecryptField(row, masterKey, &out[i].Value)
	}
	return out
}

// EncryptBytes AEAD-encrypts a raw byte payload (attachment contents) under
// the given key with a fresh IV. Unlike EncryptField it does not JSON-wrap
// the plaintext and keeps ciphertext/nonce as raw bytes for blob storage.
func EncryptBytes(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// DecryptBytes reverses EncryptBytes. Returns common.ErrDecryptFailed on
// authentication failure.
func DecryptBytes(ciphertext, nonce, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length", common.ErrDecryptFailed)
	}
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryptFailed
	}
	return plaintext, nil
}
