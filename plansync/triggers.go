// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package plansync

import (
	"context"
	"time"
)

// Trigger tags the external signal that requested a sync pass. The set is
// open-ended; any string can be pushed by an event source.
type Trigger string

const (
	TriggerManual     Trigger = "manual"
	TriggerOnline     Trigger = "online-event"
	TriggerOffline    Trigger = "offline-event"
	TriggerVisibility Trigger = "visibility-change"
	TriggerFocus      Trigger = "focus-event"
	TriggerStartup    Trigger = "startup"
	TriggerInterval   Trigger = "interval"
)

// Notifier is the uniform trigger channel every event source pushes into.
// The channel has capacity one and sends never block: browser-style event
// sources can fire in the same scheduling turn (focus immediately followed
// by online), and collapsing those into one pending trigger is exactly the
// behavior the re-entrancy guard wants.
type Notifier struct {
	ch chan Trigger
}

// NewNotifier creates a trigger channel.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan Trigger, 1)}
}

// Notify pushes a trigger without blocking. It reports whether the trigger
// was accepted; false means a trigger is already pending and this one was
// coalesced away, which is fine: the pending pass syncs latest durable state.
func (n *Notifier) Notify(t Trigger) bool {
	select {
	case n.ch <- t:
		return true
	default:
		return false
	}
}

// C exposes the receive side for the coordinator's Run loop.
func (n *Notifier) C() <-chan Trigger { return n.ch }

// NotifyEvery pushes t at the given interval until ctx is cancelled.
// Used by daemons as a periodic retry source alongside event triggers.
func (n *Notifier) NotifyEvery(ctx context.Context, every time.Duration, t Trigger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.Notify(t)
		}
	}
}
