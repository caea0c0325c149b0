// Package state holds the observable GlobalState mirror: a small record
// mutated only through a compare-and-emit helper that suppresses
// redundant notifications, the way the original Tauri app's
// mutate_global_state does against its AppHandle.Emit.
package state

import "sync"

// subscriberBuffer bounds how many pending change notifications a slow
// subscriber may queue before new ones are dropped for it.
const subscriberBuffer = 16

// Mirror holds the current GlobalState and fans out a copy to subscribers
// whenever Set actually changes it.
type Mirror[T comparable] struct {
	mu          sync.Mutex
	value       T
	subscribers []chan T
}

// New creates a Mirror seeded with the given initial value.
func New[T comparable](initial T) *Mirror[T] {
	return &Mirror[T]{value: initial}
}

// Get returns the current value.
func (m *Mirror[T]) Get() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// Subscribe returns a channel that receives the new value every time Set
// changes it. The channel is never closed by the Mirror.
func (m *Mirror[T]) Subscribe() <-chan T {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan T, subscriberBuffer)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Set applies mutate to the current value and, only if the result differs
// from the current value, stores it and notifies subscribers.
func (m *Mirror[T]) Set(mutate func(old T) T) T {
	m.mu.Lock()
	next := mutate(m.value)
	changed := next != m.value
	if changed {
		m.value = next
	}
	subs := m.subscribers
	m.mu.Unlock()

	if !changed {
		return next
	}
	for _, ch := range subs {
		select {
		case ch <- next:
		default:
			// Slow subscriber; drop rather than block the mutator.
		}
	}
	return next
}
