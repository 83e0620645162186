// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package plansync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record kinds tracked by the offline store.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// DateLayout is the canonical calendar-date form for transaction dates.
// Lexicographic order equals chronological order.
const DateLayout = "2006-01-02"

// Transaction is a single income or expense entry. LocalID is the
// client-generated primary key and never leaves the device except as the
// opaque idempotency key on inserts. RemoteID is assigned by the backend once
// the row is durably persisted.
type Transaction struct {
	LocalID   string          `json:"local_id"`
	RemoteID  string          `json:"remote_id,omitempty"`
	OwnerID   string          `json:"owner_id,omitempty"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      string          `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Synced    bool            `json:"synced"`
}

// NewTransaction creates an unsynced transaction with a fresh local identity.
func NewTransaction(ownerID, kind string, amount decimal.Decimal, category, date string) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		LocalID:   uuid.New().String(),
		OwnerID:   ownerID,
		Kind:      kind,
		Amount:    amount,
		Category:  category,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the scalar invariants before a transaction is persisted.
func (t *Transaction) Validate() error {
	if t.LocalID == "" {
		return fmt.Errorf("transaction local_id must not be empty")
	}
	if t.Kind != KindIncome && t.Kind != KindExpense {
		return fmt.Errorf("transaction kind must be %q or %q, got %q", KindIncome, KindExpense, t.Kind)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction amount must be non-negative, got %s", t.Amount)
	}
	if !ValidDate(t.Date) {
		return fmt.Errorf("transaction date must be in %s form, got %q", DateLayout, t.Date)
	}
	return nil
}

// Profile holds per-user preference fields. It is keyed by the owner identity
// directly (one row per user), so reconciliation is always an upsert.
type Profile struct {
	OwnerID       string          `json:"owner_id"`
	RemoteID      string          `json:"remote_id,omitempty"`
	Currency      string          `json:"currency"`
	Locale        string          `json:"locale"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Synced        bool            `json:"synced"`
}

// Validate checks the profile invariants.
func (p *Profile) Validate() error {
	if p.OwnerID == "" {
		return fmt.Errorf("profile owner_id must not be empty")
	}
	if p.MonthlyBudget.IsNegative() {
		return fmt.Errorf("profile monthly_budget must be non-negative, got %s", p.MonthlyBudget)
	}
	return nil
}

// Forecast is one planned month of the 12-month forecast editor. TempID plays
// the same role as Transaction.LocalID; the authoritative identity on the
// backend is the natural key (owner_id, month_index), so duplicate local rows
// for the same month converge to a single remote row via upsert.
type Forecast struct {
	TempID         string          `json:"temp_id"`
	RemoteID       string          `json:"remote_id,omitempty"`
	OwnerID        string          `json:"owner_id,omitempty"`
	MonthIndex     int             `json:"month_index"`
	PlannedIncome  decimal.Decimal `json:"planned_income"`
	PlannedExpense decimal.Decimal `json:"planned_expense"`
	Note           string          `json:"note"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Synced         bool            `json:"synced"`
}

// NewForecast creates an unsynced forecast row for the given month.
func NewForecast(ownerID string, monthIndex int, plannedIncome, plannedExpense decimal.Decimal, note string) *Forecast {
	return &Forecast{
		TempID:         uuid.New().String(),
		OwnerID:        ownerID,
		MonthIndex:     monthIndex,
		PlannedIncome:  plannedIncome,
		PlannedExpense: plannedExpense,
		Note:           note,
		UpdatedAt:      time.Now().UTC(),
	}
}

// Validate checks the forecast invariants.
func (f *Forecast) Validate() error {
	if f.TempID == "" {
		return fmt.Errorf("forecast temp_id must not be empty")
	}
	if f.MonthIndex < 0 || f.MonthIndex > 11 {
		return fmt.Errorf("forecast month_index must be in [0,11], got %d", f.MonthIndex)
	}
	if f.PlannedIncome.IsNegative() || f.PlannedExpense.IsNegative() {
		return fmt.Errorf("forecast planned amounts must be non-negative")
	}
	return nil
}

// ValidDate reports whether s is a canonical YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return false
	}
	// Reject forms that parse but do not round-trip (e.g. "2024-3-01").
	return t.Format(DateLayout) == s
}
