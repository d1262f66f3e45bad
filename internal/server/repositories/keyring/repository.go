// Package keyring persists the per-credential wrapped master keys and PRF
// salts. Everything here is opaque to the server.
package keyring

import (
	"context"

	"github.com/cipherdesk/cipherdesk/internal/server/models"
)

type Repository interface {
	UpsertWrappedKey(ctx context.Context, row *models.WrappedKeyRow) error
	GetWrappedKey(ctx context.Context, userID, credentialID string) (*models.WrappedKeyRow, error)
	ListWrappedKeys(ctx context.Context, userID string) ([]*models.WrappedKeyRow, error)
	DeleteWrappedKey(ctx context.Context, userID, credentialID string) error
	CountWrappedKeys(ctx context.Context, userID string) (int, error)

	UpsertPRFParams(ctx context.Context, row *models.PRFParamsRow) error
	GetPRFParams(ctx context.Context, userID, credentialID string) (*models.PRFParamsRow, error)
	DeletePRFParams(ctx context.Context, userID, credentialID string) error
}
