package plansync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNotifierCoalescesPendingTriggers(t *testing.T) {
	n := NewNotifier()

	require.True(t, n.Notify(TriggerFocus))
	// A second trigger in the same turn is coalesced into the pending one.
	require.False(t, n.Notify(TriggerOnline))
	require.False(t, n.Notify(TriggerManual))

	got := <-n.C()
	require.Equal(t, TriggerFocus, got)

	// Drained: the next trigger is accepted again.
	require.True(t, n.Notify(TriggerManual))
	require.Equal(t, TriggerManual, <-n.C())
}

func TestNotifierNeverBlocks(t *testing.T) {
	n := NewNotifier()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			n.Notify(TriggerInterval)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked with a full channel")
	}
}

func TestNotifyEveryPushesUntilCancelled(t *testing.T) {
	n := NewNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	go n.NotifyEvery(ctx, 5*time.Millisecond, TriggerInterval)

	select {
	case got := <-n.C():
		require.Equal(t, TriggerInterval, got)
	case <-time.After(time.Second):
		t.Fatal("no interval trigger within deadline")
	}

	cancel()
	// Drain whatever fired before cancellation took effect, then verify
	// nothing new arrives.
	time.Sleep(20 * time.Millisecond)
	select {
	case <-n.C():
	default:
	}
	select {
	case got := <-n.C():
		t.Fatalf("trigger %q delivered after cancellation", got)
	case <-time.After(30 * time.Millisecond):
	}
}
