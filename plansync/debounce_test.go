package plansync

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesRapidTriggers(t *testing.T) {
	var fired int32
	d := NewDebouncer(30*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)

	// Quiet afterwards: exactly one invocation.
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestDebouncerFlushFiresPendingWrite(t *testing.T) {
	var fired int32
	d := NewDebouncer(time.Hour, func() { atomic.AddInt32(&fired, 1) })

	d.Trigger()
	d.Flush()
	require.Equal(t, int32(1), atomic.LoadInt32(&fired))

	// Nothing pending: flush is a no-op.
	d.Flush()
	require.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestDebouncerStopCancelsWithoutFiring(t *testing.T) {
	var fired int32
	d := NewDebouncer(10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })

	d.Trigger()
	d.Stop()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&fired))
}
