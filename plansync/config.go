// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package plansync

import "time"

// Config holds tuning knobs for the Coordinator.
type Config struct {
	// SkipWhenOffline makes a pass exit early when the network probe reports
	// offline. This is a policy choice, not a correctness requirement: the
	// default is false, meaning the pass attempts once and lets gateway
	// failures be the ground truth.
	SkipWhenOffline bool

	// CallTimeout bounds each gateway call so one unreachable record cannot
	// stall the whole pass while the guard keeps new triggers from running.
	// Zero disables the bound.
	CallTimeout time.Duration

	// DisableCleanup keeps confirmed-synced transactions in local storage
	// after a pass instead of purging them.
	DisableCleanup bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		SkipWhenOffline: false,
		CallTimeout:     30 * time.Second,
	}
}
