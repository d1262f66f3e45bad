package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/dbx"
	"github.com/cipherdesk/cipherdesk/internal/server/models"
	"github.com/cipherdesk/cipherdesk/internal/server/repositories/repomanager"
)

// KeyringService stores wrapped master keys and PRF params. It never sees
// key material: rows go in and out as the client produced them. The one
// piece of policy it owns is refusing to delete a user's last credential.
type KeyringService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewKeyringService(db *sql.DB, m repomanager.RepositoryManager) *KeyringService {
	return &KeyringService{db: db, repomanager: m}
}

func (s *KeyringService) PutWrappedKey(ctx context.Context, row *models.WrappedKeyRow) error {
	repo := s.repomanager.Keyring(s.db)
	if err := repo.UpsertWrappedKey(ctx, row); err != nil {
		return fmt.Errorf("error storing wrapped key: %w", err)
	}
	return nil
}

func (s *KeyringService) GetWrappedKey(ctx context.Context, userID, credentialID string) (*models.WrappedKeyRow, error) {
	repo := s.repomanager.Keyring(s.db)
	return repo.GetWrappedKey(ctx, userID, credentialID)
}

func (s *KeyringService) ListWrappedKeys(ctx context.Context, userID string) ([]*models.WrappedKeyRow, error) {
	repo := s.repomanager.Keyring(s.db)
	return repo.ListWrappedKeys(ctx, userID)
}

// DeleteWrappedKey removes a credential's wrapped key and PRF params in
// one transaction. The count check runs inside the same transaction so
// two concurrent revocations cannot race past the last-credential guard.
func (s *KeyringService) DeleteWrappedKey(ctx context.Context, userID, credentialID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Keyring(tx)

		n, err := repo.CountWrappedKeys(ctx, userID)
		if err != nil {
			return err
		}
		if n <= 1 {
			return common.ErrLastCredential
		}

		if err := repo.DeleteWrappedKey(ctx, userID, credentialID); err != nil {
			return err
		}
		return repo.DeletePRFParams(ctx, userID, credentialID)
	})
}

func (s *KeyringService) PutPRFParams(ctx context.Context, row *models.PRFParamsRow) error {
	repo := s.repomanager.Keyring(s.db)
	if err := repo.UpsertPRFParams(ctx, row); err != nil {
		return fmt.Errorf("error storing prf params: %w", err)
	}
	return nil
}

func (s *KeyringService) GetPRFParams(ctx context.Context, userID, credentialID string) (*models.PRFParamsRow, error) {
	repo := s.repomanager.Keyring(s.db)
	return repo.GetPRFParams(ctx, userID, credentialID)
}
