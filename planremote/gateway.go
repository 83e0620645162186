// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

// Package planremote adapts the MoneyPlan HTTP backend to the plansync ports:
// the sync gateway, the network status probe, and the auth session provider.
package planremote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/thosapor1/moneyplan-ai-sub001/planserver"
	"github.com/thosapor1/moneyplan-ai-sub001/plansync"
)

// TokenFunc returns the current bearer token for a request.
type TokenFunc func(ctx context.Context) (string, error)

// Gateway implements plansync.Backend over the backend's REST API.
type Gateway struct {
	BaseURL string
	Token   TokenFunc
	HTTP    *http.Client
	logger  *slog.Logger
}

// NewGateway creates a gateway for baseURL authenticating with tok.
func NewGateway(baseURL string, tok TokenFunc, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		BaseURL: baseURL,
		Token:   tok,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// InsertTransaction creates a remote transaction row. The client key makes a
// retried insert after a lost acknowledgment land on the same remote row.
func (g *Gateway) InsertTransaction(ctx context.Context, t *plansync.Transaction) (string, error) {
	payload := transactionPayload(t)
	var resp planserver.IDResponse
	if err := g.do(ctx, http.MethodPost, "/sync/transactions", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UpdateTransactionByID overwrites the remote row (last writer wins).
func (g *Gateway) UpdateTransactionByID(ctx context.Context, remoteID string, t *plansync.Transaction) error {
	payload := transactionPayload(t)
	var resp planserver.IDResponse
	return g.do(ctx, http.MethodPut, "/sync/transactions/"+remoteID, payload, &resp)
}

// UpsertProfile writes the per-user profile row.
func (g *Gateway) UpsertProfile(ctx context.Context, p *plansync.Profile) (string, error) {
	payload := &planserver.ProfilePayload{
		OwnerID:       p.OwnerID,
		Currency:      p.Currency,
		Locale:        p.Locale,
		MonthlyBudget: p.MonthlyBudget,
	}
	var resp planserver.IDResponse
	if err := g.do(ctx, http.MethodPut, "/sync/profile", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UpsertForecastByNaturalKey writes the (owner_id, month_index) forecast row.
func (g *Gateway) UpsertForecastByNaturalKey(ctx context.Context, f *plansync.Forecast) (string, error) {
	payload := &planserver.ForecastPayload{
		ClientKey:      f.TempID,
		OwnerID:        f.OwnerID,
		MonthIndex:     f.MonthIndex,
		PlannedIncome:  f.PlannedIncome,
		PlannedExpense: f.PlannedExpense,
		Note:           f.Note,
	}
	var resp planserver.IDResponse
	if err := g.do(ctx, http.MethodPut, "/sync/forecasts", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func transactionPayload(t *plansync.Transaction) *planserver.TransactionPayload {
	return &planserver.TransactionPayload{
		ClientKey: t.LocalID,
		OwnerID:   t.OwnerID,
		Kind:      t.Kind,
		Amount:    t.Amount,
		Category:  t.Category,
		Date:      t.Date,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// do sends one JSON request and decodes the response into out. Every failure
// is wrapped in a plansync.GatewayError so the coordinator can report a
// machine-readable code without interpreting the cause.
func (g *Gateway) do(ctx context.Context, method, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return &plansync.GatewayError{Code: plansync.ReasonBadPayload,
			Message: "failed to marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, g.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return &plansync.GatewayError{Code: plansync.ReasonInternal,
			Message: "failed to create HTTP request", Err: err}
	}

	token, err := g.Token(ctx)
	if err != nil {
		return &plansync.GatewayError{Code: plansync.ReasonAuthRejected,
			Message: "failed to get bearer token", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.HTTP.Do(httpReq)
	if err != nil {
		return &plansync.GatewayError{Code: plansync.ReasonNetwork,
			Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		var errResp planserver.ErrorResponse
		if err := json.Unmarshal(raw, &errResp); err != nil || errResp.Error == "" {
			return &plansync.GatewayError{
				Code:    codeForStatus(resp.StatusCode),
				Message: fmt.Sprintf("server returned status %d: %s", resp.StatusCode, string(raw)),
			}
		}
		return &plansync.GatewayError{Code: errResp.Error, Message: errResp.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &plansync.GatewayError{Code: plansync.ReasonBadPayload,
			Message: "failed to decode response", Err: err}
	}
	return nil
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return plansync.ReasonAuthRejected
	case http.StatusNotFound:
		return plansync.ReasonNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return plansync.ReasonValidation
	default:
		return plansync.ReasonInternal
	}
}
