package client

import (
	"context"

	"github.com/cipherdesk/cipherdesk/internal/client/models"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/webauthn"
)

// Client is the persistence collaborator of the encryption core: opaque
// encrypted blobs and wrapped-key records keyed by user id and credential
// id. Access control is enforced by the host, not here. The core treats
// every call as all-or-nothing; transient I/O retry is the host's concern.
type Client interface {
	Close() error

	// Account.
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Ping(ctx context.Context) error

	// Keyring.
	GetWrappedKey(ctx context.Context, credentialID string) (*cryptox.WrappedKey, error)
	ListWrappedKeys(ctx context.Context) ([]*cryptox.WrappedKey, error)
	PutWrappedKey(ctx context.Context, w *cryptox.WrappedKey) error
	DeleteWrappedKey(ctx context.Context, credentialID string) error
	GetPRFParams(ctx context.Context, credentialID string) (*webauthn.PRFKeyParams, error)
	PutPRFParams(ctx context.Context, p *webauthn.PRFKeyParams) error

	// Records.
	ListRecords(ctx context.Context) ([]*models.Record, error)
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	PutRecord(ctx context.Context, r *models.Record) error
	DeleteRecord(ctx context.Context, id string) error

	// Attachments.
	PutAttachment(ctx context.Context, a *models.Attachment) error
	GetAttachment(ctx context.Context, id string) (*models.Attachment, error)
	PresignAttachmentPut(ctx context.Context) (storageKey, url string, err error)
	PresignAttachmentGet(ctx context.Context, storageKey string) (url string, err error)
}
