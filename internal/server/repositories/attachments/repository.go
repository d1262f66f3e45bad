// Package attachments persists metadata for encrypted blobs held in
// object storage.
package attachments

import (
	"context"

	"github.com/cipherdesk/cipherdesk/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, row *models.AttachmentRow) error
	GetByID(ctx context.Context, userID, id string) (*models.AttachmentRow, error)
	GetByStorageKey(ctx context.Context, userID, storageKey string) (*models.AttachmentRow, error)
	Delete(ctx context.Context, userID, id string) error
}
