// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

// Package planserver is the reference MoneyPlan backend: a small Postgres
// service exposing the four write operations the sync gateway needs
// (insert-transaction, update-transaction-by-id, upsert-profile and
// upsert-forecast-by-natural-key) behind JWT bearer auth.
package planserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thosapor1/moneyplan-ai-sub001/plansync"
)

// ErrNotFound signals an update aimed at a row that does not exist for the
// authenticated user.
var ErrNotFound = errors.New("row not found")

// ValidationError rejects a payload that fails scalar validation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Service provides the backend write operations on a pgx connection pool.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a backend service from an existing pool.
func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pool: pool, logger: logger}
}

// InsertTransaction creates a transaction row and returns its durable id.
// Replayed inserts (same user_id and client_key) return the previously
// assigned id instead of creating a duplicate row.
func (s *Service) InsertTransaction(ctx context.Context, userID string, p *TransactionPayload) (string, error) {
	if err := validateTransaction(p); err != nil {
		return "", err
	}
	createdAt, updatedAt := parseWireTimes(p.CreatedAt, p.UpdatedAt)

	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO transactions (user_id, client_key, kind, amount, category, tx_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, client_key) DO UPDATE SET
			kind = EXCLUDED.kind,
			amount = EXCLUDED.amount,
			category = EXCLUDED.category,
			tx_date = EXCLUDED.tx_date,
			updated_at = EXCLUDED.updated_at
		RETURNING id::text
	`, userID, p.ClientKey, p.Kind, p.Amount.String(), p.Category, p.Date,
		createdAt, updatedAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert transaction: %w", err)
	}
	return id, nil
}

// UpdateTransaction overwrites the row identified by id. Last writer wins:
// no version check, matching the client's blind overwrite-on-update policy.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id string, p *TransactionPayload) error {
	if err := validateTransaction(p); err != nil {
		return err
	}
	_, updatedAt := parseWireTimes(p.CreatedAt, p.UpdatedAt)

	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions
		SET kind = $3, amount = $4, category = $5, tx_date = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
	`, id, userID, p.Kind, p.Amount.String(), p.Category, p.Date, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertProfile writes the singleton profile row for the authenticated user
// and returns its durable identity (the user id itself).
func (s *Service) UpsertProfile(ctx context.Context, userID string, p *ProfilePayload) (string, error) {
	if p.MonthlyBudget.IsNegative() {
		return "", &ValidationError{Msg: "monthly_budget must be non-negative"}
	}

	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id, currency, locale, monthly_budget, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			currency = EXCLUDED.currency,
			locale = EXCLUDED.locale,
			monthly_budget = EXCLUDED.monthly_budget,
			updated_at = now()
		RETURNING user_id
	`, userID, p.Currency, p.Locale, p.MonthlyBudget.String()).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert profile: %w", err)
	}
	return id, nil
}

// UpsertForecast writes the forecast row identified by the natural key
// (user_id, month_index) and returns its durable id. Duplicate local rows
// for the same month converge here to a single remote row.
func (s *Service) UpsertForecast(ctx context.Context, userID string, p *ForecastPayload) (string, error) {
	if p.MonthIndex < 0 || p.MonthIndex > 11 {
		return "", &ValidationError{Msg: "month_index must be in [0,11]"}
	}
	if p.PlannedIncome.IsNegative() || p.PlannedExpense.IsNegative() {
		return "", &ValidationError{Msg: "planned amounts must be non-negative"}
	}

	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO forecasts (user_id, month_index, planned_income, planned_expense, note, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id, month_index) DO UPDATE SET
			planned_income = EXCLUDED.planned_income,
			planned_expense = EXCLUDED.planned_expense,
			note = EXCLUDED.note,
			updated_at = now()
		RETURNING id::text
	`, userID, p.MonthIndex, p.PlannedIncome.String(), p.PlannedExpense.String(), p.Note).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert forecast: %w", err)
	}
	return id, nil
}

// SeedForecastMonths pre-creates the twelve forecast rows for a user, which
// is how production backends provision the forecast editor.
func (s *Service) SeedForecastMonths(ctx context.Context, userID string) error {
	batch := &pgx.Batch{}
	for month := 0; month < 12; month++ {
		batch.Queue(`
			INSERT INTO forecasts (user_id, month_index)
			VALUES ($1, $2)
			ON CONFLICT (user_id, month_index) DO NOTHING
		`, userID, month)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for month := 0; month < 12; month++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to seed forecast month %d: %w", month, err)
		}
	}
	return nil
}

func validateTransaction(p *TransactionPayload) error {
	if p.ClientKey == "" {
		return &ValidationError{Msg: "client_key is required"}
	}
	if p.Kind != plansync.KindIncome && p.Kind != plansync.KindExpense {
		return &ValidationError{Msg: "kind must be income or expense"}
	}
	if p.Amount.IsNegative() {
		return &ValidationError{Msg: "amount must be non-negative"}
	}
	if !plansync.ValidDate(p.Date) {
		return &ValidationError{Msg: "date must be YYYY-MM-DD"}
	}
	return nil
}

func parseWireTimes(created, updated string) (time.Time, time.Time) {
	now := time.Now().UTC()
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		createdAt = now
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		updatedAt = now
	}
	return createdAt, updatedAt
}
