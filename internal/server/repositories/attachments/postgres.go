package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/dbx"
	"github.com/cipherdesk/cipherdesk/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, row *models.AttachmentRow) error {
	query := `
		INSERT INTO attachments (id, user_id, storage_key, meta, file_key, nonce)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, id)
		DO UPDATE SET meta = EXCLUDED.meta, file_key = EXCLUDED.file_key, nonce = EXCLUDED.nonce
	`
	if _, err := r.db.ExecContext(ctx, query,
		row.ID, row.UserID, row.StorageKey, row.Meta, row.FileKey, row.Nonce); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.AttachmentRow, error) {
	query := `
		SELECT id, user_id, storage_key, meta, file_key, nonce, created_at
		FROM attachments
		WHERE user_id = $1 AND id = $2
	`
	return r.scanOne(ctx, query, userID, id)
}

func (r *PostgresRepository) GetByStorageKey(ctx context.Context, userID, storageKey string) (*models.AttachmentRow, error) {
	query := `
		SELECT id, user_id, storage_key, meta, file_key, nonce, created_at
		FROM attachments
		WHERE user_id = $1 AND storage_key = $2
	`
	return r.scanOne(ctx, query, userID, storageKey)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*models.AttachmentRow, error) {
	row := &models.AttachmentRow{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&row.ID, &row.UserID, &row.StorageKey, &row.Meta, &row.FileKey, &row.Nonce, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM attachments WHERE user_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
