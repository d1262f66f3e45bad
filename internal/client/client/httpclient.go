package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/client/models"
	"github.com/cipherdesk/cipherdesk/internal/common"
	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/cipherdesk/cipherdesk/internal/webauthn"
)

// HTTPClient talks to the CipherDesk API over HTTP+JSON. It carries the
// bearer token obtained at login on every subsequent request.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	accessToken string
}

// NewHTTPClient builds a client for the given API base URL
// (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) Close() error { return nil }

// do sends one JSON request. A nil in sends no body; a nil out discards
// the response body. Status codes map onto the package sentinels.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, apiErr.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/users/register",
		credentialsRequest{Username: username, Password: password}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/users/login",
		credentialsRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return err
	}
	c.accessToken = resp.AccessToken
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/ping", nil, nil)
}

func (c *HTTPClient) GetWrappedKey(ctx context.Context, credentialID string) (*cryptox.WrappedKey, error) {
	var w cryptox.WrappedKey
	if err := c.do(ctx, http.MethodGet, "/api/keyring/wrapped-keys/"+url.PathEscape(credentialID), nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *HTTPClient) ListWrappedKeys(ctx context.Context) ([]*cryptox.WrappedKey, error) {
	var ws []*cryptox.WrappedKey
	if err := c.do(ctx, http.MethodGet, "/api/keyring/wrapped-keys", nil, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (c *HTTPClient) PutWrappedKey(ctx context.Context, w *cryptox.WrappedKey) error {
	return c.do(ctx, http.MethodPut, "/api/keyring/wrapped-keys/"+url.PathEscape(w.CredentialID), w, nil)
}

func (c *HTTPClient) DeleteWrappedKey(ctx context.Context, credentialID string) error {
	return c.do(ctx, http.MethodDelete, "/api/keyring/wrapped-keys/"+url.PathEscape(credentialID), nil, nil)
}

func (c *HTTPClient) GetPRFParams(ctx context.Context, credentialID string) (*webauthn.PRFKeyParams, error) {
	var p webauthn.PRFKeyParams
	if err := c.do(ctx, http.MethodGet, "/api/keyring/prf-params/"+url.PathEscape(credentialID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) PutPRFParams(ctx context.Context, p *webauthn.PRFKeyParams) error {
	return c.do(ctx, http.MethodPut, "/api/keyring/prf-params/"+url.PathEscape(p.CredentialID), p, nil)
}

func (c *HTTPClient) ListRecords(ctx context.Context) ([]*models.Record, error) {
	var rs []*models.Record
	if err := c.do(ctx, http.MethodGet, "/api/records", nil, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func (c *HTTPClient) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	var r models.Record
	if err := c.do(ctx, http.MethodGet, "/api/records/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *HTTPClient) PutRecord(ctx context.Context, r *models.Record) error {
	return c.do(ctx, http.MethodPut, "/api/records/"+url.PathEscape(r.ID), r, nil)
}

func (c *HTTPClient) DeleteRecord(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/records/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) PutAttachment(ctx context.Context, a *models.Attachment) error {
	return c.do(ctx, http.MethodPut, "/api/attachments/"+url.PathEscape(a.ID), a, nil)
}

func (c *HTTPClient) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	var a models.Attachment
	if err := c.do(ctx, http.MethodGet, "/api/attachments/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) PresignAttachmentPut(ctx context.Context) (string, string, error) {
	var resp struct {
		StorageKey string `json:"storage_key"`
		URL        string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/attachments/presign-put", nil, &resp); err != nil {
		return "", "", err
	}
	return resp.StorageKey, resp.URL, nil
}

func (c *HTTPClient) PresignAttachmentGet(ctx context.Context, storageKey string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/attachments/blob/"+url.PathEscape(storageKey)+"/presign-get", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
