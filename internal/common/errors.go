// Package common defines shared constants and sentinel errors used across
// client and server layers of CipherDesk. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Crypto errors. These form the failure taxonomy of the end-to-end
	// encryption core; none of them is ever retried automatically.

	// ErrPRFUnsupported means the authenticator or browser did not produce
	// PRF output during the ceremony. Recoverable by falling back to the
	// passphrase enrollment path, never by retrying the same ceremony.
	ErrPRFUnsupported = errors.New("authenticator does not support PRF")

	// ErrUnwrapFailed means AEAD authentication failed while unwrapping a
	// master key: wrong KEK, tampered ciphertext, or a corrupted record.
	ErrUnwrapFailed = errors.New("master key unwrap failed")

	// ErrDecryptFailed means AEAD authentication failed on an encrypted
	// field. Treated as a data-integrity signal and logged, never ignored.
	ErrDecryptFailed = errors.New("field decryption failed")

	// ErrUnsupportedVersion means an EncryptedData or WrappedKey record
	// carries a format version this build does not recognize.
	ErrUnsupportedVersion = errors.New("unsupported cipher format version")

	// ErrSessionLocked means an encrypt/decrypt call site asked for the
	// master key while the session was locked. Callers must re-prompt
	// unlock rather than crash.
	ErrSessionLocked = errors.New("encryption session is locked")

	// ErrPayloadTooLarge means a plaintext exceeded the per-field bound.
	ErrPayloadTooLarge = errors.New("plaintext payload too large")

	// ErrLastCredential guards revocation: the final enrolled passkey of an
	// account cannot be removed, or the wrapped master key would be lost.
	ErrLastCredential = errors.New("cannot revoke the last credential")

	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorAlreadyExists = errors.New("already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
