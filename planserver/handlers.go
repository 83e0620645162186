// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package planserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/thosapor1/moneyplan-ai-sub001/plansync"
)

// Handlers exposes the backend write API over HTTP.
type Handlers struct {
	service *Service
	auth    *JWTAuth
	logger  *slog.Logger
}

// NewHandlers creates the HTTP handlers for the sync API.
func NewHandlers(service *Service, auth *JWTAuth, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, auth: auth, logger: logger}
}

// Routes returns the request mux for the sync API.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sync/transactions", h.handleInsertTransaction)
	mux.HandleFunc("PUT /sync/transactions/{id}", h.handleUpdateTransaction)
	mux.HandleFunc("PUT /sync/profile", h.handleUpsertProfile)
	mux.HandleFunc("PUT /sync/forecasts", h.handleUpsertForecast)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

func (h *Handlers) handleInsertTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.GetUserID(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, plansync.ReasonAuthRejected, err.Error())
		return
	}

	var payload TransactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, plansync.ReasonBadPayload, "failed to parse transaction payload")
		return
	}

	id, err := h.service.InsertTransaction(r.Context(), userID, &payload)
	if err != nil {
		h.writeServiceError(w, err, "insert transaction")
		return
	}
	h.writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (h *Handlers) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.GetUserID(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, plansync.ReasonAuthRejected, err.Error())
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, plansync.ReasonValidation, "transaction id is required")
		return
	}

	var payload TransactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, plansync.ReasonBadPayload, "failed to parse transaction payload")
		return
	}

	if err := h.service.UpdateTransaction(r.Context(), userID, id, &payload); err != nil {
		h.writeServiceError(w, err, "update transaction")
		return
	}
	h.writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *Handlers) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.GetUserID(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, plansync.ReasonAuthRejected, err.Error())
		return
	}

	var payload ProfilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, plansync.ReasonBadPayload, "failed to parse profile payload")
		return
	}

	id, err := h.service.UpsertProfile(r.Context(), userID, &payload)
	if err != nil {
		h.writeServiceError(w, err, "upsert profile")
		return
	}
	h.writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *Handlers) handleUpsertForecast(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.GetUserID(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, plansync.ReasonAuthRejected, err.Error())
		return
	}

	var payload ForecastPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, plansync.ReasonBadPayload, "failed to parse forecast payload")
		return
	}

	id, err := h.service.UpsertForecast(r.Context(), userID, &payload)
	if err != nil {
		h.writeServiceError(w, err, "upsert forecast")
		return
	}
	h.writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, err error, op string) {
	var vErr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, plansync.ReasonNotFound, "row not found")
	case errors.As(err, &vErr):
		h.writeError(w, http.StatusUnprocessableEntity, plansync.ReasonValidation, vErr.Msg)
	default:
		h.logger.Error("Backend operation failed", "op", op, "error", err)
		h.writeError(w, http.StatusInternalServerError, plansync.ReasonInternal, "operation failed")
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
