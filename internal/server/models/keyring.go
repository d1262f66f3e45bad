package models

import "time"

// WrappedKeyRow stores one credential's wrapped master key. The server
// treats iv/ciphertext as opaque: it cannot unwrap anything.
type WrappedKeyRow struct {
	UserID       string
	CredentialID string
	IV           string
	Ciphertext   string
	Version      int
	CreatedAt    time.Time
}

// PRFParamsRow stores the per-credential PRF evaluation salt. The salt is
// not secret; it only makes KEK derivation credential-specific.
type PRFParamsRow struct {
	UserID       string
	CredentialID string
	Salt         []byte
	CreatedAt    time.Time
}
