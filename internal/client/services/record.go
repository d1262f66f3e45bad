package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/client/client"
	"github.com/cipherdesk/cipherdesk/internal/client/models"
	"github.com/cipherdesk/cipherdesk/internal/client/repositories/records"
	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/logging"
	"github.com/cipherdesk/cipherdesk/internal/session"
)

// RecordService is the encrypted CRUD surface every feature module
// (contacts, tasks, labels) goes through. It obtains the master key from
// the session per call and never caches it; a locked session surfaces as
// common.ErrSessionLocked and the caller re-prompts unlock.
type RecordService struct {
	store   client.Client
	repo    records.Repository
	session *session.Session
	logger  logging.Logger
}

func NewRecordService(store client.Client, repo records.Repository, sess *session.Session, logger logging.Logger) *RecordService {
	return &RecordService{store: store, repo: repo, session: sess, logger: logger}
}

func newRecordID() string {
	id, err := common.MakeRandHexString(16)
	if err != nil {
		panic(err)
	}
	return id
}

// Add encrypts the envelope and persists it server-side, then mirrors it
// into the local cache. The server write is authoritative; a cache write
// failure is only logged.
func (s *RecordService) Add(ctx context.Context, envelope models.Envelope) (string, error) {
	rec, err := s.seal(newRecordID(), envelope)
	if err != nil {
		return "", err
	}

	if err := s.store.PutRecord(ctx, rec); err != nil {
		return "", fmt.Errorf("saving error: %w", err)
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		s.logger.Warn(ctx, "record cache write failed", "id", rec.ID, "error", err)
	}

	s.session.TouchActivity()
	return rec.ID, nil
}

// Update re-encrypts an existing record under a fresh IV.
func (s *RecordService) Update(ctx context.Context, id string, envelope models.Envelope) error {
	rec, err := s.seal(id, envelope)
	if err != nil {
		return err
	}

	if err := s.store.PutRecord(ctx, rec); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		s.logger.Warn(ctx, "record cache write failed", "id", id, "error", err)
	}

	s.session.TouchActivity()
	return nil
}

func (s *RecordService) seal(id string, envelope models.Envelope) (*models.Record, error) {
	masterKey, err := s.session.MasterKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(masterKey)

	overview, err := cryptox.EncryptField(envelope.Overview(), masterKey)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}
	details, err := cryptox.EncryptField(envelope, masterKey)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	return &models.Record{
		ID:        id,
		Overview:  *overview,
		Details:   *details,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// List decrypts the cached overviews in partial-success mode: a corrupted
// row is tagged with its error and logged as a data-integrity signal, and
// the rest of the list stays intact. Output order follows the cache order.
func (s *RecordService) List(ctx context.Context) ([]models.OverviewView, error) {
	masterKey, err := s.session.MasterKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(masterKey)

	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache read error: %w", err)
	}

	blobs := make([]*cryptox.EncryptedData, len(rows))
	for i, row := range rows {
		blobs[i] = &row.Overview
	}

	results := cryptox.DecryptFieldsPartial[models.Overview](blobs, masterKey)

	views := make([]models.OverviewView, len(rows))
	for i, res := range results {
		views[i] = models.OverviewView{ID: rows[i].ID, Overview: res.Value, Err: res.Err}
		if res.Err != nil {
			s.logger.Error(ctx, "record overview failed to decrypt", "id", rows[i].ID, "error", res.Err)
		}
	}
	return views, nil
}

// Get fetches and decrypts a single record fail-fast, preferring the
// server copy and falling back to the cache when offline.
func (s *RecordService) Get(ctx context.Context, id string) (*models.Envelope, error) {
	masterKey, err := s.session.MasterKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(masterKey)

	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		s.logger.Warn(ctx, "server read failed, using cache", "id", id, "error", err)
		rec, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	var envelope models.Envelope
	if err := cryptox.DecryptField(&rec.Details, masterKey, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// Delete removes the record server-side and from the cache.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn(ctx, "record cache delete failed", "id", id, "error", err)
	}
	return nil
}

// Sync replaces the local cache with the server's record set.
func (s *RecordService) Sync(ctx context.Context) error {
	rows, err := s.store.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("sync error: %w", err)
	}
	if err := s.repo.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("cache replace error: %w", err)
	}
	s.logger.Info(ctx, "records synced", "count", len(rows))
	return nil
}
