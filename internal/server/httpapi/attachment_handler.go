package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/server/models"
	"github.com/cipherdesk/cipherdesk/internal/server/services"
	"github.com/gorilla/mux"
)

type AttachmentHandler struct {
	service *services.AttachmentService
}

func NewAttachmentHandler(service *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// attachmentPayload is the wire shape of attachment metadata. The blob
// itself goes straight to object storage through a presigned URL.
type attachmentPayload struct {
	ID         string                `json:"id"`
	StorageKey string                `json:"storage_key"`
	Meta       cryptox.EncryptedData `json:"meta"`
	FileKey    cryptox.EncryptedData `json:"file_key"`
	Nonce      []byte                `json:"nonce"`
	CreatedAt  time.Time             `json:"created_at"`
}

func (h *AttachmentHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req attachmentPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request payload")
		return
	}
	req.ID = mux.Vars(r)["id"]
	if req.ID == "" || req.StorageKey == "" || req.FileKey.Ciphertext == "" {
		badRequest(w, "id, storage_key and file_key are required")
		return
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	meta, err := json.Marshal(req.Meta)
	if err != nil {
		badRequest(w, "invalid attachment payload")
		return
	}
	fileKey, err := json.Marshal(req.FileKey)
	if err != nil {
		badRequest(w, "invalid attachment payload")
		return
	}

	row := &models.AttachmentRow{
		ID:         req.ID,
		UserID:     GetUserID(r),
		StorageKey: req.StorageKey,
		Meta:       meta,
		FileKey:    fileKey,
		Nonce:      req.Nonce,
		CreatedAt:  req.CreatedAt,
	}
	if err := h.service.Put(r.Context(), row); err != nil {
		internalError(w, "failed to store attachment")
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (h *AttachmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.Get(r.Context(), GetUserID(r), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			notFound(w, "attachment not found")
			return
		}
		internalError(w, "failed to fetch attachment")
		return
	}

	p := &attachmentPayload{
		ID:         row.ID,
		StorageKey: row.StorageKey,
		Nonce:      row.Nonce,
		CreatedAt:  row.CreatedAt,
	}
	if err := json.Unmarshal(row.Meta, &p.Meta); err != nil {
		internalError(w, "failed to decode attachment")
		return
	}
	if err := json.Unmarshal(row.FileKey, &p.FileKey); err != nil {
		internalError(w, "failed to decode attachment")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AttachmentHandler) PresignPut(w http.ResponseWriter, r *http.Request) {
	key, presignedURL, err := h.service.GetPresignedPutUrl(r.Context())
	if err != nil {
		internalError(w, "failed to presign upload")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		StorageKey string `json:"storage_key"`
		URL        string `json:"url"`
	}{StorageKey: key, URL: presignedURL})
}

func (h *AttachmentHandler) PresignGet(w http.ResponseWriter, r *http.Request) {
	// The router matches the encoded path, so storage keys arrive with
	// their slashes still escaped.
	storageKey, err := url.PathUnescape(mux.Vars(r)["storageKey"])
	if err != nil {
		badRequest(w, "invalid storage key")
		return
	}

	presignedURL, err := h.service.GetPresignedGetUrl(r.Context(), GetUserID(r), storageKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			notFound(w, "attachment not found")
			return
		}
		internalError(w, "failed to presign download")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		URL string `json:"url"`
	}{URL: presignedURL})
}
