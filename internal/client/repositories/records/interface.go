package records

import (
	"context"

	"github.com/cipherdesk/cipherdesk/internal/client/models"
)

// Repository is the local cache of encrypted records. Rows are stored as
// they came from the server: still encrypted. The cache exists so list
// views keep working between syncs; it is never the source of truth.
type Repository interface {
	Upsert(ctx context.Context, r *models.Record) error
	GetAll(ctx context.Context) ([]*models.Record, error)
	GetByID(ctx context.Context, id string) (*models.Record, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, rows []*models.Record) error
}
