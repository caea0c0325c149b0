package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetNotifiesOnlyOnChange(t *testing.T) {
	m := New(0)
	sub := m.Subscribe()

	m.Set(func(old int) int { return old }) // no-op

	select {
	case v := <-sub:
		t.Fatalf("expected no notification for unchanged value, got %d", v)
	case <-time.After(20 * time.Millisecond):
	}

	m.Set(func(old int) int { return old + 1 })

	select {
	case v := <-sub:
		require.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("expected a notification for a real change")
	}
	require.Equal(t, 1, m.Get())
}

func TestSlowSubscriberDropsRatherThanBlocks(t *testing.T) {
	m := New(0)
	_ = m.Subscribe() // stalled-consumer stand-in, never drained

	for i := 1; i <= subscriberBuffer+5; i++ {
		n := i
		require.NotPanics(t, func() {
			m.Set(func(old int) int { return n })
		})
	}
	require.Equal(t, subscriberBuffer+5, m.Get())
}
