package models

import "time"

// RecordRow is an encrypted record as stored server-side: two opaque
// EncryptedData payloads serialized as JSON.
type RecordRow struct {
	ID        string
	UserID    string
	Overview  []byte
	Details   []byte
	UpdatedAt time.Time
}
