package models

import (
	"time"

	"github.com/cipherdesk/cipherdesk/internal/cryptox"
)

// AttachmentMeta is the plaintext metadata of an attachment; it travels
// inside an encrypted field, never in the clear.
type AttachmentMeta struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// Attachment references an encrypted blob in external object storage.
// The blob itself is AEAD-encrypted under a random file key; the file key
// and the metadata are encrypted under the master key. The server only
// ever sees the storage key and opaque ciphertext.
type Attachment struct {
	ID string `json:"id"`

	// StorageKey locates the ciphertext blob in object storage.
	StorageKey string `json:"storage_key"`

	// Meta is the encrypted AttachmentMeta.
	Meta cryptox.EncryptedData `json:"meta"`

	// FileKey is the file key encrypted under the master key.
	FileKey cryptox.EncryptedData `json:"file_key"`

	// Nonce is the AEAD nonce the blob was sealed with.
	Nonce []byte `json:"nonce"`

	CreatedAt time.Time `json:"created_at"`
}
