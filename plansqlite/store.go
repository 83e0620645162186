// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

// Package plansqlite provides the SQLite-backed offline record store for the
// MoneyPlan sync engine. It owns the three durable keyed collections
// (transactions, profile, forecasts) plus a generic timestamped key→value
// cache, and implements plansync.OfflineStore.
package plansqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/thosapor1/moneyplan-ai-sub001/plansync"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Store is the durable offline record store. Writes are serialized with a
// mutex to avoid SQLite locking issues; each operation is individually
// atomic, so the coordinator needs no extra locking around storage calls.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	writeMu sync.Mutex
}

// Open opens (or creates) the store at path and initializes the schema.
// Use ":memory:" for tests that do not need restart survival.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	store, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing database handle and initializes the schema.
func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := initializeSchema(db); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle for callers that need raw access (tests, migrations).
func (s *Store) DB() *sql.DB { return s.db }

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			local_id    TEXT NOT NULL,
			remote_id   TEXT,
			owner_id    TEXT,
			kind        TEXT NOT NULL CHECK (kind IN ('income','expense')),
			amount      TEXT NOT NULL,
			category    TEXT NOT NULL DEFAULT '',
			tx_date     TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			synced      INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (local_id)
		)`,

		// One row per signed-in user.
		`CREATE TABLE IF NOT EXISTS profiles (
			owner_id        TEXT NOT NULL,
			remote_id       TEXT,
			currency        TEXT NOT NULL DEFAULT '',
			locale          TEXT NOT NULL DEFAULT '',
			monthly_budget  TEXT NOT NULL DEFAULT '0',
			updated_at      TEXT NOT NULL,
			synced          INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (owner_id)
		)`,

		`CREATE TABLE IF NOT EXISTS forecasts (
			temp_id          TEXT NOT NULL,
			remote_id        TEXT,
			owner_id         TEXT,
			month_index      INTEGER NOT NULL CHECK (month_index BETWEEN 0 AND 11),
			planned_income   TEXT NOT NULL DEFAULT '0',
			planned_expense  TEXT NOT NULL DEFAULT '0',
			note             TEXT NOT NULL DEFAULT '',
			updated_at       TEXT NOT NULL,
			synced           INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (temp_id)
		)`,

		// Read-through cache for unrelated lookups; outside sync correctness.
		`CREATE TABLE IF NOT EXISTS kv_cache (
			cache_key  TEXT NOT NULL,
			payload    TEXT NOT NULL,
			cached_at  TEXT NOT NULL,
			PRIMARY KEY (cache_key)
		)`,
	}
	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_transactions_synced ON transactions(synced, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_forecasts_owner_month ON forecasts(owner_id, month_index)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// ---- producer-side writes (UI mutations land here, marked unsynced) ----

// PutTransaction inserts or replaces a transaction by local identity and
// re-flags it unsynced. An edit to a previously-synced record re-enters
// "pending" while keeping its remote identity.
func (s *Store) PutTransaction(ctx context.Context, t *plansync.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	t.UpdatedAt = time.Now().UTC()
	t.Synced = false
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (local_id, remote_id, owner_id, kind, amount, category, tx_date, created_at, updated_at, synced)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(local_id) DO UPDATE SET
			owner_id = excluded.owner_id,
			kind = excluded.kind,
			amount = excluded.amount,
			category = excluded.category,
			tx_date = excluded.tx_date,
			updated_at = excluded.updated_at,
			synced = 0
	`, t.LocalID, t.RemoteID, t.OwnerID, t.Kind, t.Amount.String(), t.Category, t.Date,
		t.CreatedAt.UTC().Format(timeLayout), t.UpdatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to put transaction: %w", err)
	}
	return nil
}

// PutProfile inserts or replaces the singleton profile row for its owner.
func (s *Store) PutProfile(ctx context.Context, p *plansync.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	p.UpdatedAt = time.Now().UTC()
	p.Synced = false
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (owner_id, remote_id, currency, locale, monthly_budget, updated_at, synced)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, 0)
		ON CONFLICT(owner_id) DO UPDATE SET
			currency = excluded.currency,
			locale = excluded.locale,
			monthly_budget = excluded.monthly_budget,
			updated_at = excluded.updated_at,
			synced = 0
	`, p.OwnerID, p.RemoteID, p.Currency, p.Locale, p.MonthlyBudget.String(),
		p.UpdatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}
	return nil
}

// PutForecast inserts or replaces a forecast row by temp identity.
func (s *Store) PutForecast(ctx context.Context, f *plansync.Forecast) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	f.UpdatedAt = time.Now().UTC()
	f.Synced = false
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forecasts (temp_id, remote_id, owner_id, month_index, planned_income, planned_expense, note, updated_at, synced)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(temp_id) DO UPDATE SET
			owner_id = excluded.owner_id,
			month_index = excluded.month_index,
			planned_income = excluded.planned_income,
			planned_expense = excluded.planned_expense,
			note = excluded.note,
			updated_at = excluded.updated_at,
			synced = 0
	`, f.TempID, f.RemoteID, f.OwnerID, f.MonthIndex, f.PlannedIncome.String(),
		f.PlannedExpense.String(), f.Note, f.UpdatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to put forecast: %w", err)
	}
	return nil
}

// ---- local reads (read-your-writes source for the UI) ----

// ListTransactions returns all locally retained transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]plansync.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT local_id, COALESCE(remote_id,''), COALESCE(owner_id,''), kind, amount,
		       category, tx_date, created_at, updated_at, synced
		FROM transactions ORDER BY tx_date DESC, updated_at DESC`)
}

// GetProfile returns the stored profile for ownerID, or nil when absent.
func (s *Store) GetProfile(ctx context.Context, ownerID string) (*plansync.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT owner_id, COALESCE(remote_id,''), currency, locale, monthly_budget, updated_at, synced
		FROM profiles WHERE owner_id = ?`, ownerID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// ListForecasts returns the forecast rows for ownerID ordered by month.
func (s *Store) ListForecasts(ctx context.Context, ownerID string) ([]plansync.Forecast, error) {
	return s.queryForecasts(ctx, `
		SELECT temp_id, COALESCE(remote_id,''), COALESCE(owner_id,''), month_index,
		       planned_income, planned_expense, note, updated_at, synced
		FROM forecasts WHERE owner_id = ? ORDER BY month_index, updated_at`, ownerID)
}

// ---- plansync.OfflineStore ----

// UnsyncedTransactions returns pending transactions, oldest edit first.
func (s *Store) UnsyncedTransactions(ctx context.Context) ([]plansync.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT local_id, COALESCE(remote_id,''), COALESCE(owner_id,''), kind, amount,
		       category, tx_date, created_at, updated_at, synced
		FROM transactions WHERE synced = 0 OR synced IS NULL
		ORDER BY updated_at`)
}

// UnsyncedProfiles returns pending profile rows.
func (s *Store) UnsyncedProfiles(ctx context.Context) ([]plansync.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id, COALESCE(remote_id,''), currency, locale, monthly_budget, updated_at, synced
		FROM profiles WHERE synced = 0 OR synced IS NULL
		ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced profiles: %w", err)
	}
	defer rows.Close()

	var profiles []plansync.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// UnsyncedForecasts returns pending forecast rows, oldest edit first so the
// latest local values win the natural-key upsert.
func (s *Store) UnsyncedForecasts(ctx context.Context) ([]plansync.Forecast, error) {
	return s.queryForecasts(ctx, `
		SELECT temp_id, COALESCE(remote_id,''), COALESCE(owner_id,''), month_index,
		       planned_income, planned_expense, note, updated_at, synced
		FROM forecasts WHERE synced = 0 OR synced IS NULL
		ORDER BY updated_at`)
}

// MarkTransactionSynced stitches the remote identity onto the local record
// and flips the synced flag in one atomic statement. Idempotent; an unknown
// localID is a no-op.
func (s *Store) MarkTransactionSynced(ctx context.Context, localID, remoteID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET remote_id = ?, synced = 1 WHERE local_id = ?`,
		remoteID, localID)
	if err != nil {
		return fmt.Errorf("failed to mark transaction synced: %w", err)
	}
	return nil
}

// MarkTransactionSyncedByRemoteID reconciles by remote identity alone.
func (s *Store) MarkTransactionSyncedByRemoteID(ctx context.Context, remoteID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET synced = 1 WHERE remote_id = ?`, remoteID)
	if err != nil {
		return fmt.Errorf("failed to mark transaction synced by remote id: %w", err)
	}
	return nil
}

// MarkProfileSynced flips the profile row synced.
func (s *Store) MarkProfileSynced(ctx context.Context, ownerID, remoteID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET remote_id = ?, synced = 1 WHERE owner_id = ?`,
		remoteID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to mark profile synced: %w", err)
	}
	return nil
}

// MarkForecastSynced flips the forecast row synced.
func (s *Store) MarkForecastSynced(ctx context.Context, tempID, remoteID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`UPDATE forecasts SET remote_id = ?, synced = 1 WHERE temp_id = ?`,
		remoteID, tempID)
	if err != nil {
		return fmt.Errorf("failed to mark forecast synced: %w", err)
	}
	return nil
}

// DeleteSyncedTransactions purges confirmed-synced transactions to bound
// local storage growth. Unsynced rows are never removed, and profile and
// forecast rows are retained unconditionally.
func (s *Store) DeleteSyncedTransactions(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE synced = 1`)
	if err != nil {
		return fmt.Errorf("failed to delete synced transactions: %w", err)
	}
	return nil
}

// ---- read-through cache ----

// CachePut stores payload under key with the current timestamp.
func (s *Store) CachePut(ctx context.Context, key, payload string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_cache (cache_key, payload, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, cached_at = excluded.cached_at
	`, key, payload, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// CacheGet returns the payload for key when it is younger than maxAge.
func (s *Store) CacheGet(ctx context.Context, key string, maxAge time.Duration) (string, bool, error) {
	var payload, cachedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, cached_at FROM kv_cache WHERE cache_key = ?`, key).
		Scan(&payload, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	at, err := time.Parse(timeLayout, cachedAt)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse cache timestamp: %w", err)
	}
	if maxAge > 0 && time.Since(at) > maxAge {
		return "", false, nil
	}
	return payload, true, nil
}

// ---- scan helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]plansync.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []plansync.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *Store) queryForecasts(ctx context.Context, query string, args ...any) ([]plansync.Forecast, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	var out []plansync.Forecast
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func scanTransaction(r rowScanner) (*plansync.Transaction, error) {
	var t plansync.Transaction
	var amount, createdAt, updatedAt string
	var synced int
	if err := r.Scan(&t.LocalID, &t.RemoteID, &t.OwnerID, &t.Kind, &amount,
		&t.Category, &t.Date, &createdAt, &updatedAt, &synced); err != nil {
		return nil, err
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at %q: %w", updatedAt, err)
	}
	t.Synced = synced != 0
	return &t, nil
}

func scanProfile(r rowScanner) (*plansync.Profile, error) {
	var p plansync.Profile
	var budget, updatedAt string
	var synced int
	if err := r.Scan(&p.OwnerID, &p.RemoteID, &p.Currency, &p.Locale,
		&budget, &updatedAt, &synced); err != nil {
		return nil, err
	}
	var err error
	if p.MonthlyBudget, err = decimal.NewFromString(budget); err != nil {
		return nil, fmt.Errorf("bad monthly_budget %q: %w", budget, err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at %q: %w", updatedAt, err)
	}
	p.Synced = synced != 0
	return &p, nil
}

func scanForecast(r rowScanner) (*plansync.Forecast, error) {
	var f plansync.Forecast
	var income, expense, updatedAt string
	var synced int
	if err := r.Scan(&f.TempID, &f.RemoteID, &f.OwnerID, &f.MonthIndex,
		&income, &expense, &f.Note, &updatedAt, &synced); err != nil {
		return nil, err
	}
	var err error
	if f.PlannedIncome, err = decimal.NewFromString(income); err != nil {
		return nil, fmt.Errorf("bad planned_income %q: %w", income, err)
	}
	if f.PlannedExpense, err = decimal.NewFromString(expense); err != nil {
		return nil, fmt.Errorf("bad planned_expense %q: %w", expense, err)
	}
	if f.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at %q: %w", updatedAt, err)
	}
	f.Synced = synced != 0
	return &f, nil
}
