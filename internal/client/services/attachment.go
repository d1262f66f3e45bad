package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cipherdesk/cipherdesk/internal/client/client"
	"github.com/cipherdesk/cipherdesk/internal/client/models"
	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/logging"
	"github.com/cipherdesk/cipherdesk/internal/netx"
	"github.com/cipherdesk/cipherdesk/internal/session"
	"github.com/google/uuid"
)

// AttachmentService moves encrypted blobs through object storage. Each
// attachment gets its own random file key; the blob ciphertext goes to S3
// via a presigned URL while the wrapped file key and encrypted metadata go
// to the API. The storage operator sees neither contents nor file names.
type AttachmentService struct {
	store   client.Client
	session *session.Session
	logger  logging.Logger
}

func NewAttachmentService(store client.Client, sess *session.Session, logger logging.Logger) *AttachmentService {
	return &AttachmentService{store: store, session: sess, logger: logger}
}

// Upload encrypts the file at path and persists it. The attachment record
// is written only after the blob upload succeeded, so a registered
// attachment always has its ciphertext in place.
func (s *AttachmentService) Upload(ctx context.Context, path string) (string, error) {
	masterKey, err := s.session.MasterKey()
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(masterKey)

	plain, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading file: %w", err)
	}

	fileKey := cryptox.GenerateMasterKey()
	defer common.WipeByteArray(fileKey)

	ciphertext, nonce, err := cryptox.EncryptBytes(plain, fileKey)
	if err != nil {
		return "", fmt.Errorf("error encrypting file: %w", err)
	}

	storageKey, uploadURL, err := s.store.PresignAttachmentPut(ctx)
	if err != nil {
		return "", fmt.Errorf("presign error: %w", err)
	}
	if err := netx.UploadToPresignedURL(ctx, uploadURL, ciphertext); err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}

	meta, err := cryptox.EncryptField(models.AttachmentMeta{
		FileName: filepath.Base(path),
		Size:     int64(len(plain)),
	}, masterKey)
	if err != nil {
		return "", fmt.Errorf("encryption error: %w", err)
	}
	wrappedFileKey, err := cryptox.EncryptField(fileKey, masterKey)
	if err != nil {
		return "", fmt.Errorf("encryption error: %w", err)
	}

	att := &models.Attachment{
		ID:         uuid.NewString(),
		StorageKey: storageKey,
		Meta:       *meta,
		FileKey:    *wrappedFileKey,
		Nonce:      nonce,
	}
	if err := s.store.PutAttachment(ctx, att); err != nil {
		return "", fmt.Errorf("saving error: %w", err)
	}

	s.logger.Info(ctx, "attachment uploaded", "id", att.ID, "bytes", len(plain))
	s.session.TouchActivity()
	return att.ID, nil
}

// Download fetches an attachment's blob, decrypts it and writes it into
// destDir under its original file name. Returns the written path.
func (s *AttachmentService) Download(ctx context.Context, id, destDir string) (string, error) {
	masterKey, err := s.session.MasterKey()
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(masterKey)

	att, err := s.store.GetAttachment(ctx, id)
	if err != nil {
		return "", fmt.Errorf("fetch error: %w", err)
	}

	var fileKey []byte
	if err := cryptox.DecryptField(&att.FileKey, masterKey, &fileKey); err != nil {
		return "", err
	}
	defer common.WipeByteArray(fileKey)

	var meta models.AttachmentMeta
	if err := cryptox.DecryptField(&att.Meta, masterKey, &meta); err != nil {
		return "", err
	}

	url, err := s.store.PresignAttachmentGet(ctx, att.StorageKey)
	if err != nil {
		return "", fmt.Errorf("presign error: %w", err)
	}
	ciphertext, err := netx.DownloadFromPresignedURL(ctx, url)
	if err != nil {
		return "", fmt.Errorf("download error: %w", err)
	}

	plain, err := cryptox.DecryptBytes(ciphertext, att.Nonce, fileKey)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, meta.FileName)
	if err := os.WriteFile(dest, plain, 0o600); err != nil {
		return "", fmt.Errorf("error writing file: %w", err)
	}

	s.session.TouchActivity()
	return dest, nil
}
