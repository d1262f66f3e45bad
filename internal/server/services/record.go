package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cipherdesk/cipherdesk/internal/server/models"
	"github.com/cipherdesk/cipherdesk/internal/server/repositories/repomanager"
)

// RecordService is ciphertext CRUD scoped to the authenticated user.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	return &RecordService{db: db, repomanager: m}
}

func (s *RecordService) Put(ctx context.Context, row *models.RecordRow) error {
	repo := s.repomanager.Records(s.db)
	if err := repo.Upsert(ctx, row); err != nil {
		return fmt.Errorf("error storing record: %w", err)
	}
	return nil
}

func (s *RecordService) Get(ctx context.Context, userID, id string) (*models.RecordRow, error) {
	repo := s.repomanager.Records(s.db)
	return repo.GetByID(ctx, userID, id)
}

func (s *RecordService) List(ctx context.Context, userID string) ([]*models.RecordRow, error) {
	repo := s.repomanager.Records(s.db)
	return repo.ListByUser(ctx, userID)
}

func (s *RecordService) Delete(ctx context.Context, userID, id string) error {
	repo := s.repomanager.Records(s.db)
	if err := repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("error deleting record: %w", err)
	}
	return nil
}
