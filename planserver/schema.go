// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package planserver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema bootstrap for the reference backend. Three fixed business tables;
// transactions carry a (user_id, client_key) idempotency gate so a retried
// insert whose acknowledgment was lost lands on the same remote row, and
// forecasts are keyed by the natural (user_id, month_index) pair.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id     TEXT NOT NULL,
		client_key  UUID NOT NULL,
		kind        TEXT NOT NULL CHECK (kind IN ('income','expense')),
		amount      NUMERIC(14,2) NOT NULL CHECK (amount >= 0),
		category    TEXT NOT NULL DEFAULT '',
		tx_date     DATE NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, client_key)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_transactions_user_date
		ON transactions (user_id, tx_date)`,

	`CREATE TABLE IF NOT EXISTS profiles (
		user_id         TEXT PRIMARY KEY,
		currency        TEXT NOT NULL DEFAULT '',
		locale          TEXT NOT NULL DEFAULT '',
		monthly_budget  NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (monthly_budget >= 0),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS forecasts (
		id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id          TEXT NOT NULL,
		month_index      INT NOT NULL CHECK (month_index BETWEEN 0 AND 11),
		planned_income   NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (planned_income >= 0),
		planned_expense  NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (planned_expense >= 0),
		note             TEXT NOT NULL DEFAULT '',
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, month_index)
	)`,
}

// InitSchema creates the backend tables if they do not exist.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
