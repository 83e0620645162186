// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package plansync

import (
	"errors"
	"fmt"
)

// Machine-readable gateway failure reasons. The coordinator does not branch
// on these (every gateway failure leaves the record unsynced for the next
// pass) but listeners and logs need the taxonomy.
const (
	ReasonNetwork      = "network_error"
	ReasonValidation   = "validation_failed"
	ReasonAuthRejected = "auth_rejected"
	ReasonNotFound     = "not_found"
	ReasonBadPayload   = "bad_payload"
	ReasonInternal     = "internal_error"
)

// ErrSyncInProgress is returned by SyncAll when another pass already holds
// the re-entrancy guard. The trigger is dropped, not queued.
var ErrSyncInProgress = errors.New("sync pass already in progress")

// GatewayError is a distinguishable backend failure carrying a
// machine-readable code alongside the transport error.
type GatewayError struct {
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway error (%s)", e.Code)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// StoreError marks a storage-layer failure. The coordinator treats it as the
// failure of the entire pass: a non-functioning store means no further
// progress is possible until the next trigger.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("offline store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
