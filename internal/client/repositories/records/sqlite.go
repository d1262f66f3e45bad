package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cipherdesk/cipherdesk/internal/client/models"
	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EncryptedData blobs are stored as their JSON form, which is the one
// stable wire contract.
func encodeData(d cryptox.EncryptedData) ([]byte, error) {
	return json.Marshal(d)
}

func decodeData(b []byte, d *cryptox.EncryptedData) error {
	return json.Unmarshal(b, d)
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.Record) error {
	overview, err := encodeData(rec.Overview)
	if err != nil {
		return err
	}
	details, err := encodeData(rec.Details)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO records (id, overview, details, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			overview = excluded.overview,
			details = excluded.details,
			updated_at = excluded.updated_at
	`, rec.ID, overview, details, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}
	return nil
}

func scanRecord(scan func(dest ...any) error) (*models.Record, error) {
	var rec models.Record
	var overview, details []byte
	if err := scan(&rec.ID, &overview, &details, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeData(overview, &rec.Overview); err != nil {
		return nil, fmt.Errorf("corrupt overview blob: %w", err)
	}
	if err := decodeData(details, &rec.Details); err != nil {
		return nil, fmt.Errorf("corrupt details blob: %w", err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, overview, details, updated_at FROM records ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, overview, details, updated_at FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

// ReplaceAll swaps the whole cache for the server's view in one
// transaction, so a half-applied sync can never be observed.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, recs []*models.Record) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
			return fmt.Errorf("failed to clear records: %w", err)
		}
		for _, rec := range recs {
			overview, err := encodeData(rec.Overview)
			if err != nil {
				return err
			}
			details, err := encodeData(rec.Details)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO records (id, overview, details, updated_at) VALUES (?, ?, ?, ?)`,
				rec.ID, overview, details, rec.UpdatedAt); err != nil {
				return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}
