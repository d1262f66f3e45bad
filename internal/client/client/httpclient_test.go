package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cipherdesk/cipherdesk/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_LoginStoresToken(t *testing.T) {
	var sawAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/login":
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "alice@example.com", req.Username)
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
		case "/api/ping":
			sawAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	require.NoError(t, c.Login(context.Background(), "alice@example.com", "pw"))
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "Bearer tok-123", sawAuth)
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/records/missing":
			http.NotFound(w, r)
		case "/api/records/forbidden":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	ctx := context.Background()

	_, err := c.GetRecord(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetRecord(ctx, "forbidden")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.GetRecord(ctx, "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestHTTPClient_NetworkErrorIsUnavailable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1")

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_WrappedKeyRoundTrip(t *testing.T) {
	stored := map[string]*cryptox.WrappedKey{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/api/keyring/wrapped-keys/"
		switch r.Method {
		case http.MethodPut:
			var wk cryptox.WrappedKey
			require.NoError(t, json.NewDecoder(r.Body).Decode(&wk))
			stored[wk.CredentialID] = &wk
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			id := r.URL.Path[len(prefix):]
			wk, ok := stored[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(wk)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	ctx := context.Background()

	in := &cryptox.WrappedKey{CredentialID: "cred-1", IV: "aXY=", Ciphertext: "Y3Q=", Version: 1}
	require.NoError(t, c.PutWrappedKey(ctx, in))

	out, err := c.GetWrappedKey(ctx, "cred-1")
	require.NoError(t, err)
	assert.Equal(t, in.IV, out.IV)
	assert.Equal(t, in.Ciphertext, out.Ciphertext)
	assert.Equal(t, in.Version, out.Version)
}
