package models

import "time"

// AttachmentRow describes server-side metadata for an encrypted blob in
// object storage. Meta and FileKey are opaque EncryptedData JSON payloads.
type AttachmentRow struct {
	ID         string
	UserID     string
	StorageKey string
	Meta       []byte
	FileKey    []byte
	Nonce      []byte
	CreatedAt  time.Time
}
