package planremote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/thosapor1/moneyplan-ai-sub001/planserver"
	"github.com/thosapor1/moneyplan-ai-sub001/plansync"
)

func staticToken(token string) TokenFunc {
	return func(ctx context.Context) (string, error) { return token, nil }
}

func TestInsertTransactionRequestShape(t *testing.T) {
	tx := plansync.NewTransaction("user-1", plansync.KindExpense,
		decimal.RequireFromString("120"), "อาหาร", "2024-03-01")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sync/transactions", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// The local identity crosses the wire only as the idempotency key.
		require.Equal(t, tx.LocalID, body["client_key"])
		require.NotContains(t, body, "local_id")
		require.NotContains(t, body, "synced")
		require.Equal(t, "expense", body["kind"])
		require.Equal(t, "อาหาร", body["category"])
		require.Equal(t, "2024-03-01", body["date"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(planserver.IDResponse{ID: "r-1"})
	}))
	defer server.Close()

	g := NewGateway(server.URL, staticToken("test-token"), nil)
	remoteID, err := g.InsertTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, "r-1", remoteID)
}

func TestUpdateTransactionTargetsRemoteID(t *testing.T) {
	tx := plansync.NewTransaction("user-1", plansync.KindIncome,
		decimal.RequireFromString("500"), "salary", "2024-03-02")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/sync/transactions/r-42", r.URL.Path)
		json.NewEncoder(w).Encode(planserver.IDResponse{ID: "r-42"})
	}))
	defer server.Close()

	g := NewGateway(server.URL, staticToken("test-token"), nil)
	require.NoError(t, g.UpdateTransactionByID(context.Background(), "r-42", tx))
}

func TestUpsertProfileAndForecastPaths(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		paths = append(paths, r.URL.Path)
		json.NewEncoder(w).Encode(planserver.IDResponse{ID: "id-1"})
	}))
	defer server.Close()

	g := NewGateway(server.URL, staticToken("test-token"), nil)

	profile := &plansync.Profile{OwnerID: "user-1", Currency: "THB",
		MonthlyBudget: decimal.RequireFromString("20000")}
	remoteID, err := g.UpsertProfile(context.Background(), profile)
	require.NoError(t, err)
	require.Equal(t, "id-1", remoteID)

	forecast := plansync.NewForecast("user-1", 3,
		decimal.RequireFromString("1000"), decimal.RequireFromString("800"), "")
	remoteID, err = g.UpsertForecastByNaturalKey(context.Background(), forecast)
	require.NoError(t, err)
	require.Equal(t, "id-1", remoteID)

	require.Equal(t, []string{"/sync/profile", "/sync/forecasts"}, paths)
}

func TestGatewayErrorCodes(t *testing.T) {
	tx := plansync.NewTransaction("user-1", plansync.KindExpense,
		decimal.RequireFromString("10"), "misc", "2024-03-03")

	t.Run("server error body wins", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(planserver.ErrorResponse{
				Error: plansync.ReasonValidation, Message: "kind must be income or expense"})
		}))
		defer server.Close()

		g := NewGateway(server.URL, staticToken("t"), nil)
		_, err := g.InsertTransaction(context.Background(), tx)
		var gErr *plansync.GatewayError
		require.ErrorAs(t, err, &gErr)
		require.Equal(t, plansync.ReasonValidation, gErr.Code)
		require.Equal(t, "kind must be income or expense", gErr.Message)
	})

	t.Run("status fallback mapping", func(t *testing.T) {
		cases := map[int]string{
			http.StatusUnauthorized:        plansync.ReasonAuthRejected,
			http.StatusForbidden:           plansync.ReasonAuthRejected,
			http.StatusNotFound:            plansync.ReasonNotFound,
			http.StatusBadRequest:          plansync.ReasonValidation,
			http.StatusInternalServerError: plansync.ReasonInternal,
		}
		for status, want := range cases {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			g := NewGateway(server.URL, staticToken("t"), nil)
			_, err := g.InsertTransaction(context.Background(), tx)
			var gErr *plansync.GatewayError
			require.ErrorAs(t, err, &gErr)
			require.Equal(t, want, gErr.Code, "status %d", status)
			server.Close()
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // refuse connections

		g := NewGateway(server.URL, staticToken("t"), nil)
		_, err := g.InsertTransaction(context.Background(), tx)
		var gErr *plansync.GatewayError
		require.ErrorAs(t, err, &gErr)
		require.Equal(t, plansync.ReasonNetwork, gErr.Code)
	})

	t.Run("token failure", func(t *testing.T) {
		g := NewGateway("http://localhost:0", func(ctx context.Context) (string, error) {
			return "", errors.New("keychain locked")
		}, nil)
		_, err := g.InsertTransaction(context.Background(), tx)
		var gErr *plansync.GatewayError
		require.ErrorAs(t, err, &gErr)
		require.Equal(t, plansync.ReasonAuthRejected, gErr.Code)
	})
}
