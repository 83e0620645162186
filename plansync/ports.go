// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

// Package plansync implements the offline-first synchronization engine for
// the MoneyPlan personal-finance tracker.
//
// Local edits are written durably to an OfflineStore and marked unsynced;
// the Coordinator later reconciles them with the remote backend exactly once
// in effect, surviving connectivity flips, concurrent trigger sources, and
// partial failures. All external capabilities are narrow ports so tests can
// substitute fakes for each one independently.
package plansync

import "context"

// Session identifies the signed-in user. All sync operations are no-ops
// without one.
type Session struct {
	UserID string
}

// SessionProvider supplies the current auth session. A (nil, nil) return
// means "no session" and is not an error.
type SessionProvider interface {
	Session(ctx context.Context) (*Session, error)
}

// NetworkProbe reports current connectivity. It is a pre-flight hint only:
// the coordinator treats gateway failures as authoritative even when the
// probe said online, and implementations default to optimistic "online" when
// the probe itself is unavailable.
type NetworkProbe interface {
	IsOnline(ctx context.Context) bool
}

// OfflineStore is the durable, keyed storage for the three record kinds.
// It exclusively owns record storage and the concurrency-safe mutation of
// the synced/remote-identity fields; all store operations are individually
// atomic. Unsynced reads must never observe a half-written record.
type OfflineStore interface {
	// Unsynced discovery. Results are ordered oldest edit first so that the
	// latest local state wins when duplicates target the same natural key.
	UnsyncedTransactions(ctx context.Context) ([]Transaction, error)
	UnsyncedProfiles(ctx context.Context) ([]Profile, error)
	UnsyncedForecasts(ctx context.Context) ([]Forecast, error)

	// MarkTransactionSynced stitches the remote identity onto a local record
	// in a single atomic operation. It is idempotent, and an unknown localID
	// is a no-op rather than an error (the record may have been purged).
	MarkTransactionSynced(ctx context.Context, localID, remoteID string) error

	// MarkTransactionSyncedByRemoteID reconciles a record when only the
	// remote identity is known, e.g. after a prior partial run.
	MarkTransactionSyncedByRemoteID(ctx context.Context, remoteID string) error

	MarkProfileSynced(ctx context.Context, ownerID, remoteID string) error
	MarkForecastSynced(ctx context.Context, tempID, remoteID string) error

	// DeleteSyncedTransactions physically removes confirmed-synced transaction
	// records to bound local storage growth. It never removes unsynced rows
	// and never touches profile or forecast rows.
	DeleteSyncedTransactions(ctx context.Context) error
}

// Backend performs the actual network writes, one method per record kind and
// operation. Payloads are scalar-only; local identities never cross this
// boundary except as the opaque idempotency client key. Every failure is
// treated by the coordinator as "stays unsynced, retry next pass" regardless
// of cause.
type Backend interface {
	// InsertTransaction creates a remote row and returns its durable identity.
	InsertTransaction(ctx context.Context, t *Transaction) (remoteID string, err error)

	// UpdateTransactionByID overwrites the remote row (last writer wins).
	UpdateTransactionByID(ctx context.Context, remoteID string, t *Transaction) error

	// UpsertProfile writes the singleton per-user profile row.
	UpsertProfile(ctx context.Context, p *Profile) (remoteID string, err error)

	// UpsertForecastByNaturalKey writes the forecast row identified by
	// (owner_id, month_index). Forecast rows are pre-seeded server-side for
	// all twelve months, so reconciliation never inserts by local identity.
	UpsertForecastByNaturalKey(ctx context.Context, f *Forecast) (remoteID string, err error)
}

// EventBus publishes sync outcomes to any attached listener. Fire and forget:
// no buffering, no delivery guarantee. A listener that is not attached when
// an event fires simply misses it, and the next pass re-reports.
type EventBus interface {
	EmitSyncComplete(r Report)
	EmitSyncError(e SyncError)
}
