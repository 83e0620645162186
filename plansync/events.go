// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package plansync

import "sync"

// Report is the single completion event for a pass. Callers distinguish
// "fully synced" from "partially synced" by comparing the two counts.
type Report struct {
	Success int     `json:"success_count"`
	Total   int     `json:"total_count"`
	Trigger Trigger `json:"trigger,omitempty"`
}

// SyncError is the optional observability event for pass-level failures.
type SyncError struct {
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Bus is the in-process EventBus implementation. Handlers attached after an
// event fired simply miss it; there is no buffering or replay.
type Bus struct {
	mu          sync.Mutex
	onComplete  []func(Report)
	onSyncError []func(SyncError)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// OnSyncComplete attaches a completion listener.
func (b *Bus) OnSyncComplete(fn func(Report)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onComplete = append(b.onComplete, fn)
}

// OnSyncError attaches an error listener.
func (b *Bus) OnSyncError(fn func(SyncError)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onSyncError = append(b.onSyncError, fn)
}

// EmitSyncComplete delivers r to the listeners attached right now.
func (b *Bus) EmitSyncComplete(r Report) {
	b.mu.Lock()
	handlers := make([]func(Report), len(b.onComplete))
	copy(handlers, b.onComplete)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(r)
	}
}

// EmitSyncError delivers e to the listeners attached right now.
func (b *Bus) EmitSyncError(e SyncError) {
	b.mu.Lock()
	handlers := make([]func(SyncError), len(b.onSyncError))
	copy(handlers, b.onSyncError)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}
