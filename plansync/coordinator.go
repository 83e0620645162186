// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package plansync

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Coordinator is the single serialized orchestrator of reconciliation passes.
// It decides when a pass runs (trigger consumption plus the re-entrancy
// guard), what to sync (unsynced discovery), how each record reconciles
// (insert vs. update vs. natural-key upsert), and how the outcome is
// reported. It never mutates storage directly, only through the store port.
type Coordinator struct {
	store    OfflineStore
	backend  Backend
	probe    NetworkProbe
	sessions SessionProvider
	bus      EventBus
	config   *Config
	logger   *slog.Logger

	// Guard flag (atomic): a pass in progress drops new triggers instead of
	// queueing them. Trigger sources can fire in the same scheduling turn.
	running int32
}

// NewCoordinator wires the five ports together. Pass nil config for defaults
// and nil logger for slog.Default().
func NewCoordinator(store OfflineStore, backend Backend, probe NetworkProbe,
	sessions SessionProvider, bus EventBus, config *Config, logger *slog.Logger) (*Coordinator, error) {

	if store == nil {
		return nil, fmt.Errorf("offline store must not be nil")
	}
	if backend == nil {
		return nil, fmt.Errorf("backend must not be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session provider must not be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:    store,
		backend:  backend,
		probe:    probe,
		sessions: sessions,
		bus:      bus,
		config:   config,
		logger:   logger,
	}, nil
}

// Run consumes triggers from the notifier until ctx is cancelled. Having a
// single consumer loop is what makes the re-entrancy guard a property of the
// consumer rather than a flag scattered across event callbacks.
func (c *Coordinator) Run(ctx context.Context, n *Notifier) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-n.C():
			if _, err := c.SyncAll(ctx, trigger); err != nil {
				if err == ErrSyncInProgress {
					c.logger.Debug("Trigger dropped, pass in progress", "trigger", trigger)
					continue
				}
				c.logger.Error("Sync pass failed", "trigger", trigger, "error", err)
			}
		}
	}
}

// SyncAll executes one reconciliation pass: guard, discover, reconcile,
// cleanup, report. Every trigger source calls this same entry point.
//
// A pass always terminates: the record set is bounded and nothing is retried
// within a pass. Convergence comes from triggers recurring.
func (c *Coordinator) SyncAll(ctx context.Context, trigger Trigger) (Report, error) {
	if !atomic.CompareAndSwapInt32(&c.running, 0, 1) {
		return Report{}, ErrSyncInProgress
	}
	defer atomic.StoreInt32(&c.running, 0)

	session, err := c.sessions.Session(ctx)
	if err != nil {
		c.logger.Debug("Session lookup failed, skipping pass", "error", err)
		return Report{Trigger: trigger}, nil
	}
	if session == nil {
		c.logger.Debug("No session, skipping pass", "trigger", trigger)
		return Report{Trigger: trigger}, nil
	}

	if c.config.SkipWhenOffline && c.probe != nil && !c.probe.IsOnline(ctx) {
		c.logger.Debug("Probe reports offline, skipping pass", "trigger", trigger)
		return Report{Trigger: trigger}, nil
	}

	report, err := c.runPass(ctx, session, trigger)
	if err != nil {
		// Pass-level failure (store unavailable). Logged and surfaced on the
		// error event, never thrown into UI code paths.
		c.logger.Error("Sync pass aborted", "trigger", trigger, "error", err)
		if c.bus != nil {
			c.bus.EmitSyncError(SyncError{Message: err.Error(), Cause: err})
		}
		return report, err
	}

	c.logger.Info("Sync pass complete",
		"trigger", trigger, "success", report.Success, "total", report.Total)
	if c.bus != nil {
		c.bus.EmitSyncComplete(report)
	}
	return report, nil
}

func (c *Coordinator) runPass(ctx context.Context, session *Session, trigger Trigger) (Report, error) {
	report := Report{Trigger: trigger}

	// Discovery snapshot. A store failure here means no progress is possible
	// this pass.
	transactions, err := c.store.UnsyncedTransactions(ctx)
	if err != nil {
		return report, &StoreError{Op: "discover transactions", Err: err}
	}
	profiles, err := c.store.UnsyncedProfiles(ctx)
	if err != nil {
		return report, &StoreError{Op: "discover profiles", Err: err}
	}
	forecasts, err := c.store.UnsyncedForecasts(ctx)
	if err != nil {
		return report, &StoreError{Op: "discover forecasts", Err: err}
	}
	report.Total = len(transactions) + len(profiles) + len(forecasts)

	// Reconcile each record independently and sequentially. A single record's
	// gateway failure never aborts the batch; it stays unsynced and is picked
	// up by the next pass. Store failures abort the pass.
	for i := range transactions {
		ok, err := c.reconcileTransaction(ctx, session, &transactions[i])
		if err != nil {
			return report, err
		}
		if ok {
			report.Success++
		}
	}
	for i := range profiles {
		ok, err := c.reconcileProfile(ctx, session, &profiles[i])
		if err != nil {
			return report, err
		}
		if ok {
			report.Success++
		}
	}
	for i := range forecasts {
		ok, err := c.reconcileForecast(ctx, session, &forecasts[i])
		if err != nil {
			return report, err
		}
		if ok {
			report.Success++
		}
	}

	// Bounded retention: purge confirmed-synced transactions. Profile and
	// forecast rows stay local for read-your-writes.
	if !c.config.DisableCleanup {
		if err := c.store.DeleteSyncedTransactions(ctx); err != nil {
			return report, &StoreError{Op: "cleanup", Err: err}
		}
	}

	return report, nil
}

// reconcileTransaction inserts when no remote identity is known, otherwise
// updates in place. The "has remote id already?" check is what structurally
// prevents duplicate inserts.
func (c *Coordinator) reconcileTransaction(ctx context.Context, session *Session, t *Transaction) (bool, error) {
	if t.OwnerID == "" {
		// Owner is optional while offline; injected at sync time.
		t.OwnerID = session.UserID
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if t.RemoteID == "" {
		remoteID, err := c.backend.InsertTransaction(callCtx, t)
		if err != nil {
			c.logger.Warn("Transaction insert failed, will retry next pass",
				"local_id", t.LocalID, "error", err)
			return false, nil
		}
		if err := c.store.MarkTransactionSynced(ctx, t.LocalID, remoteID); err != nil {
			return false, &StoreError{Op: "mark transaction synced", Err: err}
		}
		return true, nil
	}

	if err := c.backend.UpdateTransactionByID(callCtx, t.RemoteID, t); err != nil {
		c.logger.Warn("Transaction update failed, will retry next pass",
			"local_id", t.LocalID, "remote_id", t.RemoteID, "error", err)
		return false, nil
	}
	if err := c.store.MarkTransactionSynced(ctx, t.LocalID, t.RemoteID); err != nil {
		return false, &StoreError{Op: "mark transaction synced", Err: err}
	}
	return true, nil
}

// reconcileProfile always upserts: the profile row is keyed by the owner
// identity itself, a natural singleton per user.
func (c *Coordinator) reconcileProfile(ctx context.Context, session *Session, p *Profile) (bool, error) {
	if p.OwnerID == "" {
		p.OwnerID = session.UserID
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	remoteID, err := c.backend.UpsertProfile(callCtx, p)
	if err != nil {
		c.logger.Warn("Profile upsert failed, will retry next pass",
			"owner_id", p.OwnerID, "error", err)
		return false, nil
	}
	if err := c.store.MarkProfileSynced(ctx, p.OwnerID, remoteID); err != nil {
		return false, &StoreError{Op: "mark profile synced", Err: err}
	}
	return true, nil
}

// reconcileForecast always upserts by (owner_id, month_index). Forecast rows
// are pre-seeded server-side for all twelve months, so local identity never
// decides insert-vs-update and duplicate local rows converge to one remote row.
func (c *Coordinator) reconcileForecast(ctx context.Context, session *Session, f *Forecast) (bool, error) {
	if f.OwnerID == "" {
		f.OwnerID = session.UserID
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	remoteID, err := c.backend.UpsertForecastByNaturalKey(callCtx, f)
	if err != nil {
		c.logger.Warn("Forecast upsert failed, will retry next pass",
			"owner_id", f.OwnerID, "month_index", f.MonthIndex, "error", err)
		return false, nil
	}
	if err := c.store.MarkForecastSynced(ctx, f.TempID, remoteID); err != nil {
		return false, &StoreError{Op: "mark forecast synced", Err: err}
	}
	return true, nil
}

func (c *Coordinator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.config.CallTimeout)
}
