package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/server/models"
	"github.com/cipherdesk/cipherdesk/internal/server/services"
	"github.com/cipherdesk/cipherdesk/internal/webauthn"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type KeyringHandler struct {
	service  *services.KeyringService
	validate *validator.Validate
}

func NewKeyringHandler(service *services.KeyringService) *KeyringHandler {
	return &KeyringHandler{service: service, validate: validator.New()}
}

type wrappedKeyRequest struct {
	CredentialID string `json:"credential_id" validate:"required"`
	IV           string `json:"iv" validate:"required,base64"`
	Ciphertext   string `json:"ciphertext" validate:"required,base64"`
	Version      int    `json:"version" validate:"required,min=1"`
}

func wrappedKeyFromRow(row *models.WrappedKeyRow) *cryptox.WrappedKey {
	return &cryptox.WrappedKey{
		CredentialID: row.CredentialID,
		IV:           row.IV,
		Ciphertext:   row.Ciphertext,
		Version:      row.Version,
		CreatedAt:    row.CreatedAt,
	}
}

func (h *KeyringHandler) PutWrappedKey(w http.ResponseWriter, r *http.Request) {
	var req wrappedKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(w, err.Error())
		return
	}

	row := &models.WrappedKeyRow{
		UserID:       GetUserID(r),
		CredentialID: mux.Vars(r)["credentialID"],
		IV:           req.IV,
		Ciphertext:   req.Ciphertext,
		Version:      req.Version,
	}
	if err := h.service.PutWrappedKey(r.Context(), row); err != nil {
		internalError(w, "failed to store wrapped key")
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (h *KeyringHandler) GetWrappedKey(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.GetWrappedKey(r.Context(), GetUserID(r), mux.Vars(r)["credentialID"])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			notFound(w, "wrapped key not found")
			return
		}
		internalError(w, "failed to fetch wrapped key")
		return
	}

	writeJSON(w, http.StatusOK, wrappedKeyFromRow(row))
}

func (h *KeyringHandler) ListWrappedKeys(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListWrappedKeys(r.Context(), GetUserID(r))
	if err != nil {
		internalError(w, "failed to list wrapped keys")
		return
	}

	out := make([]*cryptox.WrappedKey, 0, len(rows))
	for _, row := range rows {
		out = append(out, wrappedKeyFromRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *KeyringHandler) DeleteWrappedKey(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteWrappedKey(r.Context(), GetUserID(r), mux.Vars(r)["credentialID"])
	if err != nil {
		if errors.Is(err, common.ErrLastCredential) {
			conflict(w, "cannot revoke the last credential")
			return
		}
		internalError(w, "failed to delete wrapped key")
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (h *KeyringHandler) PutPRFParams(w http.ResponseWriter, r *http.Request) {
	var req webauthn.PRFKeyParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request payload")
		return
	}
	if len(req.Salt) == 0 {
		badRequest(w, "salt is required")
		return
	}

	row := &models.PRFParamsRow{
		UserID:       GetUserID(r),
		CredentialID: mux.Vars(r)["credentialID"],
		Salt:         req.Salt,
	}
	if err := h.service.PutPRFParams(r.Context(), row); err != nil {
		internalError(w, "failed to store prf params")
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

func (h *KeyringHandler) GetPRFParams(w http.ResponseWriter, r *http.Request) {
	row, err := h.service.GetPRFParams(r.Context(), GetUserID(r), mux.Vars(r)["credentialID"])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			notFound(w, "prf params not found")
			return
		}
		internalError(w, "failed to fetch prf params")
		return
	}

	writeJSON(w, http.StatusOK, webauthn.PRFKeyParams{
		CredentialID: row.CredentialID,
		Salt:         row.Salt,
	})
}
