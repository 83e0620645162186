package planserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// These tests exercise the request paths that reject before any database
// access, so no pool is needed.
func newTestHandlers(t *testing.T) (*Handlers, string) {
	t.Helper()
	auth := NewJWTAuth("test-secret")
	token, err := auth.GenerateToken("user-1", time.Hour)
	require.NoError(t, err)
	return NewHandlers(NewService(nil, nil), auth, nil), token
}

func TestHandlersRejectMissingAuth(t *testing.T) {
	h, _ := newTestHandlers(t)
	mux := h.Routes()

	req := httptest.NewRequest(http.MethodPost, "/sync/transactions", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "auth_rejected", body.Error)
}

func TestHandlersRejectMalformedBody(t *testing.T) {
	h, token := newTestHandlers(t)
	mux := h.Routes()

	req := httptest.NewRequest(http.MethodPut, "/sync/profile", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "bad_payload", body.Error)
}

func TestHandlersRejectInvalidTransaction(t *testing.T) {
	h, token := newTestHandlers(t)
	mux := h.Routes()

	payload := `{"client_key":"k-1","kind":"transfer","amount":"10","date":"2024-03-01"}`
	req := httptest.NewRequest(http.MethodPost, "/sync/transactions", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "validation_failed", body.Error)
}

func TestHealthEndpointNeedsNoAuth(t *testing.T) {
	h, _ := newTestHandlers(t)
	mux := h.Routes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
