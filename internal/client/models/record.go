// Package models defines the client-side record types of the CipherDesk
// suite and the envelope they are encrypted through.
package models

import (
	"encoding/json"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/cryptox"
)

// RecordType classifies a record kind.
type RecordType string

const (
	RecordTypeContact RecordType = "contact"
	RecordTypeTask    RecordType = "task"
	RecordTypeLabel   RecordType = "label"
)

// Overview is the short, list-view projection of a record. Encrypted
// separately from Details so list views decrypt only the cheap part.
type Overview struct {
	Type  RecordType `json:"type"`
	Title string     `json:"title"`
}

// Envelope is the full plaintext form of a record before encryption.
type Envelope struct {
	Type    RecordType      `json:"type"`
	Title   string          `json:"title"`
	Details json.RawMessage `json:"details"`
}

// Wrap builds an Envelope around a typed payload.
func Wrap[T any](t RecordType, title string, v T) (Envelope, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: t, Title: title, Details: b}, nil
}

// Unwrap decodes the Details into the concrete type for the envelope kind.
func (e Envelope) Unwrap() (any, error) {
	switch e.Type {
	case RecordTypeContact:
		var v Contact
		return v, json.Unmarshal(e.Details, &v)
	case RecordTypeTask:
		var v Task
		return v, json.Unmarshal(e.Details, &v)
	case RecordTypeLabel:
		var v Label
		return v, json.Unmarshal(e.Details, &v)
	default:
		var m map[string]any
		if err := json.Unmarshal(e.Details, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func (e Envelope) Overview() Overview {
	return Overview{Type: e.Type, Title: e.Title}
}

// Contact is an address-book entry.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes,omitempty"`
}

// Task is a to-do item.
type Task struct {
	Title   string     `json:"title"`
	Notes   string     `json:"notes,omitempty"`
	Done    bool       `json:"done"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// Label tags contacts and tasks.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Record is the at-rest form of a record: two EncryptedData blobs the
// server stores without being able to read.
type Record struct {
	// ID is a globally unique identifier for the record.
	ID string `json:"id"`

	// Overview is the encrypted list-view projection.
	Overview cryptox.EncryptedData `json:"overview"`

	// Details is the encrypted full payload.
	Details cryptox.EncryptedData `json:"details"`

	// UpdatedAt is the last modification time in UTC.
	UpdatedAt time.Time `json:"updated_at"`
}

// OverviewView pairs a record id with its decrypted overview for lists.
// Err is set in partial-success mode when that row failed to decrypt.
type OverviewView struct {
	ID       string
	Overview Overview
	Err      error
}
