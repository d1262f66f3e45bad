package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobServer stands in for object storage: PUT stores a blob under its
// path, GET returns it. Presigned URLs are just paths on this server.
type blobServer struct {
	mu    sync.Mutex
	blobs map[string][]byte
	srv   *httptest.Server
}

func newBlobServer(t *testing.T) *blobServer {
	t.Helper()
	b := &blobServer{blobs: make(map[string][]byte)}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/")
		b.mu.Lock()
		defer b.mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			b.blobs[key] = body
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			blob, ok := b.blobs[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(blob)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

type presigningStore struct {
	*fakeStore
	blobs   *blobServer
	nextKey int
}

func (p *presigningStore) PresignAttachmentPut(ctx context.Context) (string, string, error) {
	p.nextKey++
	key := "users/2026/8/25/blob-" + string(rune('a'+p.nextKey))
	return key, p.blobs.srv.URL + "/" + key, nil
}

func (p *presigningStore) PresignAttachmentGet(ctx context.Context, storageKey string) (string, error) {
	return p.blobs.srv.URL + "/" + storageKey, nil
}

func newAttachmentFixture(t *testing.T) (*AttachmentService, *presigningStore, *blobServer) {
	t.Helper()
	store := &presigningStore{fakeStore: newFakeStore(), blobs: newBlobServer(t)}
	sess := session.New(session.Config{})

	pk := NewPasskeyService(store, nil, sess, testLogger())
	_, err := pk.EnrollPassphrase(context.Background(), []byte("test passphrase"))
	require.NoError(t, err)

	return NewAttachmentService(store, sess, testLogger()), store, store.blobs
}

func TestAttachment_UploadDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, store, blobs := newAttachmentFixture(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	content := []byte("quarterly numbers, very confidential")
	require.NoError(t, os.WriteFile(src, content, 0o600))

	id, err := svc.Upload(ctx, src)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// the stored blob and metadata are ciphertext only
	att := store.attachments[id]
	require.NotNil(t, att)
	blob := blobs.blobs[att.StorageKey]
	require.NotEmpty(t, blob)
	assert.NotContains(t, string(blob), "confidential")
	assert.NotContains(t, att.Meta.Ciphertext, "report.pdf")

	destDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(destDir, 0o750))
	dest, err := svc.Download(ctx, id, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "report.pdf"), dest)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestAttachment_Locked(t *testing.T) {
	ctx := context.Background()
	store := &presigningStore{fakeStore: newFakeStore(), blobs: newBlobServer(t)}
	svc := NewAttachmentService(store, session.New(session.Config{}), testLogger())

	_, err := svc.Upload(ctx, "whatever.txt")
	assert.ErrorIs(t, err, common.ErrSessionLocked)

	_, err = svc.Download(ctx, "id", t.TempDir())
	assert.ErrorIs(t, err, common.ErrSessionLocked)
}

func TestAttachment_DownloadWrongKeyFails(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newAttachmentFixture(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "f.bin")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))

	id, err := svc.Upload(ctx, src)
	require.NoError(t, err)

	// corrupt the wrapped file key: decryption must fail closed
	att := store.attachments[id]
	att.FileKey.Ciphertext = "bm90IGEgY2lwaGVydGV4dA=="

	_, err = svc.Download(ctx, id, dir)
	assert.Error(t, err)
}
