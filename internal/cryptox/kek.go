// Package cryptox implements the cryptographic core of CipherDesk:
// derivation of key-encryption keys from WebAuthn PRF output or a
// passphrase, wrapping of the per-account master key, and the AEAD field
// cipher used for every encrypted record. All primitives are composed from
// AES-256-GCM, HKDF-SHA256 and argon2id; this package never performs I/O.
package cryptox

import (
	"crypto/sha256"
	"io"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the length in bytes of master keys and KEKs (AES-256).
	KeySize = 32

	// PRFSaltSize is the length of the per-credential PRF evaluation salt.
	PRFSaltSize = 32

	// minPRFOutputSize is the smallest PRF evaluation we accept as KEK
	// input material. WebAuthn PRF outputs are 32 bytes per evaluation.
	minPRFOutputSize = 32
)

// kekInfo is the HKDF domain-separation label for passkey-derived KEKs.
var kekInfo = []byte("cipherdesk.v1.prf-kek")

// DeriveKEKFromPRF turns the opaque PRF evaluation bytes returned by a
// WebAuthn ceremony into a fixed-length key-encryption key.
//
// Deterministic: the same credential evaluated over the same salt always
// yields the same KEK, which is what makes unwrap succeed across sessions.
// Returns common.ErrPRFUnsupported if the authenticator produced no usable
// PRF output, so the caller can fall back to a different enrollment path.
func DeriveKEKFromPRF(prfOutput []byte) ([]byte, error) {
	if len(prfOutput) < minPRFOutputSize {
		return nil, common.ErrPRFUnsupported
	}

	r := hkdf.New(sha256.New, prfOutput, nil, kekInfo)

	kek := make([]byte, KeySize)
	if _, err := io.ReadFull(r, kek); err != nil {
		return nil, err
	}
	return kek, nil
}

// DeriveKEKFromPassword derives a KEK from a passphrase and per-user salt
// using argon2id. This is the fallback enrollment path for authenticators
// without PRF support.
func DeriveKEKFromPassword(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// GenerateMasterKey returns a fresh random master key. Created once per
// account at first passkey registration; never persisted in plaintext.
func GenerateMasterKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// GeneratePRFSalt returns a fresh random PRF evaluation salt for a new
// credential. Immutable once persisted alongside the credential record.
func GeneratePRFSalt() []byte {
	return common.GenerateRandByteArray(PRFSaltSize)
}

// MakeVerifier returns a one-way fingerprint of the master key. The server
// stores it to detect accidental re-registration with a different key; it
// reveals nothing about the key itself.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}
