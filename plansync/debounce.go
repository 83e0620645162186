// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package plansync

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid producer-side edits (keystroke-level field
// changes) into one durable store write after a quiet period, with a forced
// flush on blur or navigation-away. This is a producer concern: the
// coordinator never deduplicates and always syncs the latest durable state
// at discovery time.
type Debouncer struct {
	mu    sync.Mutex
	quiet time.Duration
	timer *time.Timer
	fn    func()
}

// NewDebouncer creates a debouncer invoking fn after quiet elapses with no
// further Trigger calls. A quiet period around one second matches typed-edit
// coalescing.
func NewDebouncer(quiet time.Duration, fn func()) *Debouncer {
	return &Debouncer{quiet: quiet, fn: fn}
}

// Trigger (re)starts the quiet-period timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		d.fn()
	})
}

// Flush fires immediately if a write is pending. Used on blur/navigation.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()
	if pending {
		d.fn()
	}
}

// Stop cancels any pending write without firing it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
