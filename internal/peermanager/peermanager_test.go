package peermanager

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hollowpeak/tracker-relay/internal/types"
)

type recordingOutbound struct {
	mu   sync.Mutex
	sent []types.SignalEnvelope
}

func (r *recordingOutbound) Send(envelope types.SignalEnvelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, envelope)
}

func (r *recordingOutbound) snapshot() []types.SignalEnvelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.SignalEnvelope(nil), r.sent...)
}

func TestHandleNewClientSendsOfferAndTracksPeer(t *testing.T) {
	out := &recordingOutbound{}
	m := New(out)

	m.HandleNewClient("client-1")
	require.Equal(t, 1, m.PeerCount())

	sent := out.snapshot()
	require.Len(t, sent, 1)
	require.Equal(t, types.ServerID, sent[0].From)
	require.Equal(t, "client-1", sent[0].To)
	require.Equal(t, types.KindOffer, sent[0].Msg.Kind)
	require.NotEmpty(t, sent[0].Msg.SDP)
}

func TestHandleSignalingIgnoresUnknownPeer(t *testing.T) {
	out := &recordingOutbound{}
	m := New(out)

	m.HandleSignaling(types.SignalEnvelope{
		From: "ghost",
		To:   types.ServerID,
		Msg:  types.SignalMessage{Kind: types.KindAnswer, SDP: "v=0"},
	})
	require.Equal(t, 0, m.PeerCount())
}

func TestHandleDisconnectRemovesPeer(t *testing.T) {
	out := &recordingOutbound{}
	m := New(out)
	m.HandleNewClient("client-1")
	require.Equal(t, 1, m.PeerCount())

	m.HandleDisconnect("client-1")
	require.Equal(t, 0, m.PeerCount())

	// disconnecting twice is a no-op, not a panic
	m.HandleDisconnect("client-1")
}

func TestHandleSignalingIceCandidatePreservesZeroMLineIndex(t *testing.T) {
	out := &recordingOutbound{}
	m := New(out)
	m.HandleNewClient("client-1")

	mid := "0"
	zero := uint16(0)
	// Must not panic or silently drop the candidate just because mline
	// index 0 looks like the "absent" zero value.
	require.NotPanics(t, func() {
		m.HandleSignaling(types.SignalEnvelope{
			From: "client-1",
			To:   types.ServerID,
			Msg: types.SignalMessage{
				Kind: types.KindIceCandidate,
				IceCandidate: &types.IceCandidateInit{
					Candidate:     "candidate:1 1 UDP 1 127.0.0.1 1 typ host",
					SDPMid:        &mid,
					SDPMLineIndex: &zero,
				},
			},
		})
	})
}

func TestBroadcastSkipsPeersWithoutOpenChannel(t *testing.T) {
	out := &recordingOutbound{}
	m := New(out)
	m.HandleNewClient("client-1")

	// The data channel never reaches "open" without a real ICE handshake
	// in this test, so broadcast should simply skip it rather than error.
	require.NotPanics(t, func() {
		m.Broadcast(types.Pose{X: 1, Y: 2, Z: 3})
	})
}
