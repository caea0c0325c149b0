// Package events carries the core-to-UI event surface (§6): a small
// best-effort fan-out bus standing in for Tauri's AppHandle.Emit. Every
// emission is non-blocking and logged, never propagated as an error.
package events

import (
	"sync"

	"github.com/hollowpeak/tracker-relay/internal/logging"
)

// Kind names one of the four wire-level event names §6 specifies.
type Kind string

const (
	KindLocationChange    Kind = "handle-location-change"
	KindTrackerError      Kind = "handle-tracker-error"
	KindGlobalStateChange Kind = "handle-global-state-change"
	KindErrorToast        Kind = "report-error-toast"
)

// subscriberBuffer bounds per-subscriber backlog before emissions for
// that subscriber are dropped.
const subscriberBuffer = 32

// Event is one emission: Kind plus its JSON-serializable payload.
type Event struct {
	Kind    Kind
	Payload any
}

// Bus fans emitted events out to every current subscriber.
type Bus struct {
	mu          sync.Mutex
	subscribers []chan Event
}

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel that receives every event emitted after
// this call. Never closed by the Bus.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Emit delivers kind/payload to every subscriber, best-effort. A full
// subscriber buffer drops the event for that subscriber and logs it;
// emission never blocks the caller and never returns an error.
func (b *Bus) Emit(kind Kind, payload any) {
	b.mu.Lock()
	subs := b.subscribers
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- Event{Kind: kind, Payload: payload}:
		default:
			logging.Get().Warn().Str("kind", string(kind)).Msg("event subscriber backlog full, dropping")
		}
	}
}
