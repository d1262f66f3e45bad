// Package records persists encrypted record rows. The server stores and
// serves ciphertext; decryption happens only on clients.
package records

import (
	"context"

	"github.com/cipherdesk/cipherdesk/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, row *models.RecordRow) error
	GetByID(ctx context.Context, userID, id string) (*models.RecordRow, error)
	ListByUser(ctx context.Context, userID string) ([]*models.RecordRow, error)
	Delete(ctx context.Context, userID, id string) error
}
