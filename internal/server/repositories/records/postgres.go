package records

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

func (r *PostgresRepository) Upsert(ctx context.Context, row *models.RecordRow) error {
	query := `
		INSERT INTO records (id, user_id, overview, details, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, id)
		DO UPDATE SET overview = EXCLUDED.overview, details = EXCLUDED.details, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query,
		row.ID, row.UserID, row.Overview, row.Details, row.UpdatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.RecordRow, error) {
	query := `
		SELECT id, user_id, overview, details, updated_at
		FROM records
		WHERE user_id = $1 AND id = $2
	`
	row := &models.RecordRow{}
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(
		&row.ID, &row.UserID, &row.Overview, &row.Details, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.RecordRow, error) {
	query := `
		SELECT id, user_id, overview, details, updated_at
		FROM records
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.RecordRow
	for rows.Next() {
		row := &models.RecordRow{}
		if err := rows.Scan(&row.ID, &row.UserID, &row.Overview, &row.Details, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM records WHERE user_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
