// Package signaling runs the dual-fabric signaling handler from §4.3: a
// local WebSocket server for LAN/loopback clients and an outbound
// WebSocket client to a rendezvous relay, both funneling into one
// inbound channel and draining one outbound channel through a shared
// switching table. Grounded on the teacher's websocket/websocket.go hub
// pattern (Register/Unregister/ReadPump/WritePump) and webrtc/client.go's
// outbound-dial pattern, generalized from a single in-process hub to two
// independent transport fabrics.
package signaling

import (
	"sync"

	"github.com/hollowpeak/tracker-relay/internal/types"
)

// clientSendBuffer bounds a local client's outbound backlog; once it is
// full, further envelopes routed to that client are dropped and logged.
const clientSendBuffer = 256

// Handler is the signaling handler: it owns the switching table and both
// fabrics, and exposes Send so peer-manager output can be routed without
// either side depending on the other's concrete type (see
// peermanager.Outbound).
type Handler struct {
	table *switchTable

	inbound  chan types.SignalEnvelope
	outbound chan types.SignalEnvelope

	mu     sync.Mutex
	local  *localServer
	remote *remoteSession
}

// New constructs a Handler. inboundBuffer sizes the channel the
// supervisor reads signaling events from.
func New(inboundBuffer int) *Handler {
	return &Handler{
		table:    newSwitchTable(),
		inbound:  make(chan types.SignalEnvelope, inboundBuffer),
		outbound: make(chan types.SignalEnvelope, inboundBuffer),
	}
}

// Inbound is the channel the supervisor's main loop selects on for
// signaling events (NewLocalPeer, NewPeer, PeerLeft, and forwarded
// offer/answer/ice-candidate messages).
func (h *Handler) Inbound() <-chan types.SignalEnvelope {
	return h.inbound
}

// Send implements peermanager.Outbound: it queues envelope for the
// command processor, which routes it by the envelope's To id.
func (h *Handler) Send(envelope types.SignalEnvelope) {
	h.outbound <- envelope
}

// RunCommandProcessor consumes the outbound queue until it closes,
// routing each envelope through the switching table (§4.3 "Command
// processor"). Intended to run in its own goroutine.
func (h *Handler) RunCommandProcessor() {
	for envelope := range h.outbound {
		h.route(envelope)
	}
}

func (h *Handler) route(envelope types.SignalEnvelope) {
	r, ok := h.table.get(envelope.To)
	if !ok {
		logRouteMiss(envelope.To)
		return
	}
	switch r.kind {
	case routeLocal:
		data, err := encodeEnvelope(envelope)
		if err != nil {
			logEncodeFailure(envelope.To, err)
			return
		}
		select {
		case r.tx <- data:
		default:
			logSendOverflow(envelope.To)
		}
	case routeExternal:
		h.mu.Lock()
		sess := h.remote
		h.mu.Unlock()
		if sess == nil {
			logRouteMiss(envelope.To)
			return
		}
		sess.send(envelope)
	}
}

// PeerCount is a thin helper so the supervisor can report switching-
// table occupancy without reaching into package internals.
func (h *Handler) PeerCount() int {
	return h.table.size()
}
