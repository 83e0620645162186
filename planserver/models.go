// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package planserver

import "github.com/shopspring/decimal"

// REST/JSON wire models shared by the backend handlers and the client
// gateway. Payloads carry scalar fields only; the client-side local identity
// crosses the boundary solely as the opaque client_key the backend uses to
// de-duplicate retried inserts.

// TransactionPayload is the body for transaction insert and update calls.
type TransactionPayload struct {
	ClientKey string          `json:"client_key"`
	OwnerID   string          `json:"owner_id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      string          `json:"date"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// ProfilePayload is the body for the profile upsert call.
type ProfilePayload struct {
	OwnerID       string          `json:"owner_id"`
	Currency      string          `json:"currency"`
	Locale        string          `json:"locale"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
}

// ForecastPayload is the body for the forecast natural-key upsert call.
type ForecastPayload struct {
	ClientKey      string          `json:"client_key"`
	OwnerID        string          `json:"owner_id"`
	MonthIndex     int             `json:"month_index"`
	PlannedIncome  decimal.Decimal `json:"planned_income"`
	PlannedExpense decimal.Decimal `json:"planned_expense"`
	Note           string          `json:"note"`
}

// IDResponse carries the durable remote identity returned on success.
type IDResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the machine-readable failure body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
