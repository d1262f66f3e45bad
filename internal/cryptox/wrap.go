package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/common"
)

// WrapVersion is the current wrapped-master-key format revision.
const WrapVersion = 1

// WrappedKey is the persisted record of a master key encrypted under one
// credential's KEK. One row per enrolled passkey; every WrappedKey of a
// given account unwraps to the same master key bytes, which is what lets
// any enrolled passkey unlock the account.
//
// IV and Ciphertext are base64 so the record round-trips through JSON
// persistence unchanged.
type WrappedKey struct {
	CredentialID string    `json:"credential_id"`
	IV           string    `json:"iv"`
	Ciphertext   string    `json:"ciphertext"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// WrapMasterKey AEAD-encrypts the master key under the given KEK with a
// freshly generated IV. The caller persists the result; this function has
// no side effects.
func WrapMasterKey(masterKey, kek []byte) (*WrappedKey, error) {
	aesgcm, err := newGCM(kek)
	if err != nil {
		return nil, err
	}

	iv := common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext := aesgcm.Seal(nil, iv, masterKey, nil)

	return &WrappedKey{
		IV:         base64.StdEncoding.EncodeToString(iv),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Version:    WrapVersion,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// UnwrapMasterKey AEAD-decrypts a wrapped master key.
//
// Returns common.ErrUnsupportedVersion for an unrecognized format revision
// (checked before any cipher work) and common.ErrUnwrapFailed on
// authentication failure: wrong KEK, tampered ciphertext, or a corrupted
// record. This is the expected failure when a user tries to unlock with a
// passkey that never enrolled, and must never be silently swallowed.
func UnwrapMasterKey(w *WrappedKey, kek []byte) ([]byte, error) {
	if w.Version != WrapVersion {
		return nil, fmt.Errorf("%w: wrapped key version %d", common.ErrUnsupportedVersion, w.Version)
	}

	iv, err := base64.StdEncoding.DecodeString(w.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed iv", common.ErrUnwrapFailed)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(w.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ciphertext", common.ErrUnwrapFailed)
	}

	aesgcm, err := newGCM(kek)
	if err != nil {
		return nil, err
	}
	if len(iv) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad iv length", common.ErrUnwrapFailed)
	}

	masterKey, err := aesgcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, common.ErrUnwrapFailed
	}
	return masterKey, nil
}
