package planremote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbeReportsOnlineForHealthyServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewProbe(server.URL + "/healthz")
	require.True(t, p.IsOnline(context.Background()))
}

func TestProbeReportsOfflineWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	p := NewProbe(server.URL + "/healthz")
	require.False(t, p.IsOnline(context.Background()))
}

func TestProbeTreatsServerErrorsAsOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewProbe(server.URL)
	require.False(t, p.IsOnline(context.Background()))
}

func TestProbeWithoutURLIsOptimistic(t *testing.T) {
	p := NewProbe("")
	require.True(t, p.IsOnline(context.Background()))
}
