package httpapi

import (
	"net/http"

	"github.com/cipherdesk/cipherdesk/internal/logging"
	"github.com/cipherdesk/cipherdesk/internal/server/services"
	"github.com/gorilla/mux"
)

// NewRouter wires every API route. Everything under /api except account
// endpoints and the health check requires a bearer token.
func NewRouter(
	userService *services.UserService,
	keyringService *services.KeyringService,
	recordService *services.RecordService,
	attachmentService *services.AttachmentService,
	jwtSecret []byte,
	logger logging.Logger,
) *mux.Router {
	users := NewUserHandler(userService)
	keyring := NewKeyringHandler(keyringService)
	records := NewRecordHandler(recordService)
	attachments := NewAttachmentHandler(attachmentService)

	// Storage keys carry escaped slashes in the path, so routes match
	// against the encoded path.
	r := mux.NewRouter().UseEncodedPath()
	r.Use(LoggingMiddleware(logger))

	r.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
		}{Status: "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/users/register", users.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/users/login", users.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/users/refresh", users.Refresh).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(jwtSecret))

	api.HandleFunc("/keyring/wrapped-keys", keyring.ListWrappedKeys).Methods(http.MethodGet)
	api.HandleFunc("/keyring/wrapped-keys/{credentialID}", keyring.GetWrappedKey).Methods(http.MethodGet)
	api.HandleFunc("/keyring/wrapped-keys/{credentialID}", keyring.PutWrappedKey).Methods(http.MethodPut)
	api.HandleFunc("/keyring/wrapped-keys/{credentialID}", keyring.DeleteWrappedKey).Methods(http.MethodDelete)
	api.HandleFunc("/keyring/prf-params/{credentialID}", keyring.GetPRFParams).Methods(http.MethodGet)
	api.HandleFunc("/keyring/prf-params/{credentialID}", keyring.PutPRFParams).Methods(http.MethodPut)

	api.HandleFunc("/records", records.List).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}", records.Get).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}", records.Put).Methods(http.MethodPut)
	api.HandleFunc("/records/{id}", records.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/attachments/presign-put", attachments.PresignPut).Methods(http.MethodPost)
	api.HandleFunc("/attachments/blob/{storageKey}/presign-get", attachments.PresignGet).Methods(http.MethodGet)
	api.HandleFunc("/attachments/{id}", attachments.Get).Methods(http.MethodGet)
	api.HandleFunc("/attachments/{id}", attachments.Put).Methods(http.MethodPut)

	return r
}
