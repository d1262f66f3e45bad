package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/cipherdesk/cipherdesk/internal/client/client"
	"github.com/cipherdesk/cipherdesk/internal/client/models"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/logging"
	"github.com/cipherdesk/cipherdesk/internal/webauthn"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeStore is an in-memory persistence collaborator.
type fakeStore struct {
	client.Client

	mu          sync.Mutex
	wrappedKeys map[string]*cryptox.WrappedKey
	prfParams   map[string]*webauthn.PRFKeyParams
	records     map[string]*models.Record
	attachments map[string]*models.Attachment
	blobs       map[string][]byte

	// error injection
	putWrappedKeyErr error
	putPRFParamsErr  error
	putRecordErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		wrappedKeys: make(map[string]*cryptox.WrappedKey),
		prfParams:   make(map[string]*webauthn.PRFKeyParams),
		records:     make(map[string]*models.Record),
		attachments: make(map[string]*models.Attachment),
		blobs:       make(map[string][]byte),
	}
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) GetWrappedKey(ctx context.Context, credentialID string) (*cryptox.WrappedKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wrappedKeys[credentialID]
	if !ok {
		return nil, client.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeStore) ListWrappedKeys(ctx context.Context) ([]*cryptox.WrappedKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*cryptox.WrappedKey
	for _, w := range f.wrappedKeys {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) PutWrappedKey(ctx context.Context, w *cryptox.WrappedKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putWrappedKeyErr != nil {
		return f.putWrappedKeyErr
	}
	cp := *w
	f.wrappedKeys[w.CredentialID] = &cp
	return nil
}

func (f *fakeStore) DeleteWrappedKey(ctx context.Context, credentialID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.wrappedKeys, credentialID)
	delete(f.prfParams, credentialID)
	return nil
}

func (f *fakeStore) GetPRFParams(ctx context.Context, credentialID string) (*webauthn.PRFKeyParams, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prfParams[credentialID]
	if !ok {
		return nil, client.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) PutPRFParams(ctx context.Context, p *webauthn.PRFKeyParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putPRFParamsErr != nil {
		return f.putPRFParamsErr
	}
	cp := *p
	f.prfParams[p.CredentialID] = &cp
	return nil
}

func (f *fakeStore) ListRecords(ctx context.Context) ([]*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Record
	for _, r := range f.records {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) PutRecord(ctx context.Context, r *models.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putRecordErr != nil {
		return f.putRecordErr
	}
	cp := *r
	f.records[r.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteRecord(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeStore) PutAttachment(ctx context.Context, a *models.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.attachments[a.ID] = &cp
	return nil
}

func (f *fakeStore) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attachments[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
