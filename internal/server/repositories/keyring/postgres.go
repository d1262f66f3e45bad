package keyring

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

func (r *PostgresRepository) UpsertWrappedKey(ctx context.Context, row *models.WrappedKeyRow) error {
	query := `
		INSERT INTO wrapped_keys (user_id, credential_id, iv, ciphertext, version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, credential_id)
		DO UPDATE SET iv = EXCLUDED.iv, ciphertext = EXCLUDED.ciphertext, version = EXCLUDED.version
	`
	if _, err := r.db.ExecContext(ctx, query,
		row.UserID, row.CredentialID, row.IV, row.Ciphertext, row.Version); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetWrappedKey(ctx context.Context, userID, credentialID string) (*models.WrappedKeyRow, error) {
	query := `
		SELECT user_id, credential_id, iv, ciphertext, version, created_at
		FROM wrapped_keys
		WHERE user_id = $1 AND credential_id = $2
	`
	row := &models.WrappedKeyRow{}
	err := r.db.QueryRowContext(ctx, query, userID, credentialID).Scan(
		&row.UserID, &row.CredentialID, &row.IV, &row.Ciphertext, &row.Version, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) ListWrappedKeys(ctx context.Context, userID string) ([]*models.WrappedKeyRow, error) {
	query := `
		SELECT user_id, credential_id, iv, ciphertext, version, created_at
		FROM wrapped_keys
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.WrappedKeyRow
	for rows.Next() {
		row := &models.WrappedKeyRow{}
		if err := rows.Scan(&row.UserID, &row.CredentialID, &row.IV, &row.Ciphertext, &row.Version, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) DeleteWrappedKey(ctx context.Context, userID, credentialID string) error {
	query := `DELETE FROM wrapped_keys WHERE user_id = $1 AND credential_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, credentialID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountWrappedKeys(ctx context.Context, userID string) (int, error) {
	query := `SELECT count(*) FROM wrapped_keys WHERE user_id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) UpsertPRFParams(ctx context.Context, row *models.PRFParamsRow) error {
	query := `
		INSERT INTO prf_params (user_id, credential_id, salt)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, credential_id)
		DO UPDATE SET salt = EXCLUDED.salt
	`
	if _, err := r.db.ExecContext(ctx, query, row.UserID, row.CredentialID, row.Salt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPRFParams(ctx context.Context, userID, credentialID string) (*models.PRFParamsRow, error) {
	query := `
		SELECT user_id, credential_id, salt, created_at
		FROM prf_params
		WHERE user_id = $1 AND credential_id = $2
	`
	row := &models.PRFParamsRow{}
	err := r.db.QueryRowContext(ctx, query, userID, credentialID).Scan(
		&row.UserID, &row.CredentialID, &row.Salt, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) DeletePRFParams(ctx context.Context, userID, credentialID string) error {
	query := `DELETE FROM prf_params WHERE user_id = $1 AND credential_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, credentialID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
