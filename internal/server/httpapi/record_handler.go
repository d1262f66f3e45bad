package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/server/models"
	"github.com/cipherdesk/cipherdesk/internal/server/services"
	"github.com/gorilla/mux"
)

type RecordHandler struct {
	service *services.RecordService
}

func NewRecordHandler(service *services.RecordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// recordPayload is the wire shape of a record: an ID, two encrypted
// envelopes and a timestamp. The server never sees plaintext.
type recordPayload struct {
	ID        string                `json:"id"`
	Overview  cryptox.EncryptedData `json:"overview"`
	Details   cryptox.EncryptedData `json:"details"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func recordRowFromPayload(userID string, p *recordPayload) (*models.RecordRow, error) {
	overview, err := json.Marshal(p.Overview)
	if err != nil {
		return nil, err
	}
	details, err := json.Marshal(p.Details)
	if err != nil {
		return nil, err
	}
	return &models.RecordRow{
		ID:        p.ID,
		UserID:    userID,
		Overview:  overview,
		Details:   details,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func recordPayloadFromRow(row *models.RecordRow) (*recordPayload, error) {
	p := &recordPayload{ID: row.ID, UpdatedAt: row.UpdatedAt}
	if err := json.Unmarshal(row.Overview, &p.Overview); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.Details, &p.Details); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *RecordHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req recordPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request payload")
		return
	}
	req.ID = mux.Vars(r)["id"]
	if req.ID == "" || req.Overview.Ciphertext == "" || req.Details.Ciphertext == "" {
		badRequest(w, "id, overview and details are required")
		return
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = time.Now().UTC()
	}

	row, err := recordRowFromPayload(GetUserID(r), &req)
	if err != nil {
		badRequest(w, "invalid record payload")
		return
	}
	if err := h.service.Put(r.Context(), row); err != nil {
		internalError(w, "failed to store record")
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.Get(r.Context(), GetUserID(r), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			notFound(w, "record not found")
			return
		}
		internalError(w, "failed to fetch record")
		return
	}

	p, err := recordPayloadFromRow(row)
	if err != nil {
		internalError(w, "failed to decode record")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.List(r.Context(), GetUserID(r))
	if err != nil {
		internalError(w, "failed to list records")
		return
	}

	out := make([]*recordPayload, 0, len(rows))
	for _, row := range rows {
		p, err := recordPayloadFromRow(row)
		if err != nil {
			internalError(w, "failed to decode record")
			return
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), GetUserID(r), mux.Vars(r)["id"]); err != nil {
		internalError(w, "failed to delete record")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
