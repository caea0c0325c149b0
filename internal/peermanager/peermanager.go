// Package peermanager owns one RTCPeerConnection plus one ordered "data"
// data channel per connected client, and broadcasts pose updates over
// those channels. Grounded on webrtc/sfu.go's peer-connection wiring,
// trimmed to a single data channel per peer (no media, no SFU fan-out).
package peermanager

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/hollowpeak/tracker-relay/internal/logging"
	"github.com/hollowpeak/tracker-relay/internal/types"
)

const dataChannelLabel = "data"

// iceServers mirrors sfu.go's public-STUN-only configuration.
var iceServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302"}},
}

// Outbound is how the peer manager hands envelopes back to the
// signaling handler for delivery to a specific client id.
type Outbound interface {
	Send(envelope types.SignalEnvelope)
}

type peer struct {
	id   string
	pc   *webrtc.PeerConnection
	data *webrtc.DataChannel
}

// Manager implements the peer-manager contract from §4.2: one
// RTCPeerConnection and one "data" channel per client id.
type Manager struct {
	mu    sync.Mutex
	peers map[string]*peer
	out   Outbound
}

// New constructs a Manager that delivers outbound signaling through out.
func New(out Outbound) *Manager {
	return &Manager{peers: make(map[string]*peer), out: out}
}

// PeerCount reports the number of currently tracked peers.
func (m *Manager) PeerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.peers)
}

// HandleNewClient builds a peer connection for id, wires its ICE
// candidate callback, creates the "data" channel, and sends an initial
// offer through the signaling handler.
func (m *Manager) HandleNewClient(id string) {
	log := logging.Get()

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		log.Error().Err(err).Str("client", id).Msg("peer connection create failed")
		return
	}

	p := &peer{id: id, pc: pc}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		init := c.ToJSON()
		m.sendTo(id, types.SignalMessage{Kind: types.KindIceCandidate, IceCandidate: &types.IceCandidateInit{
			Candidate:     init.Candidate,
			SDPMid:        init.SDPMid,
			SDPMLineIndex: init.SDPMLineIndex,
		}})
	})

	dc, err := pc.CreateDataChannel(dataChannelLabel, &webrtc.DataChannelInit{Ordered: boolPtr(true)})
	if err != nil {
		log.Error().Err(err).Str("client", id).Msg("data channel create failed")
		_ = pc.Close()
		return
	}
	p.data = dc

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		log.Error().Err(err).Str("client", id).Msg("create offer failed")
		_ = pc.Close()
		return
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		log.Error().Err(err).Str("client", id).Msg("set local description failed")
		_ = pc.Close()
		return
	}

	m.mu.Lock()
	m.peers[id] = p
	m.mu.Unlock()

	m.sendTo(id, types.SignalMessage{Kind: types.KindOffer, SDP: offer.SDP})
}

// HandleSignaling applies an inbound Answer or IceCandidate to the peer
// named by envelope.From; anything else, or an unknown peer, is logged
// and ignored.
func (m *Manager) HandleSignaling(envelope types.SignalEnvelope) {
	log := logging.Get()

	m.mu.Lock()
	p, ok := m.peers[envelope.From]
	m.mu.Unlock()
	if !ok {
		log.Info().Str("client", envelope.From).Msg("signaling message for unknown peer, ignoring")
		return
	}

	switch envelope.Msg.Kind {
	case types.KindAnswer:
		err := p.pc.SetRemoteDescription(webrtc.SessionDescription{
			Type: webrtc.SDPTypeAnswer,
			SDP:  envelope.Msg.SDP,
		})
		if err != nil {
			log.Error().Err(err).Str("client", envelope.From).Msg("set remote description (answer) failed")
		}
	case types.KindIceCandidate:
		if envelope.Msg.IceCandidate == nil {
			return
		}
		init := webrtc.ICECandidateInit{
			Candidate:     envelope.Msg.IceCandidate.Candidate,
			SDPMid:        envelope.Msg.IceCandidate.SDPMid,
			SDPMLineIndex: envelope.Msg.IceCandidate.SDPMLineIndex,
		}
		if err := p.pc.AddICECandidate(init); err != nil {
			log.Error().Err(err).Str("client", envelope.From).Msg("add ice candidate failed")
		}
	default:
		log.Info().Str("kind", string(envelope.Msg.Kind)).Msg("unhandled signaling message kind, ignoring")
	}
}

// HandleDisconnect closes and removes the peer for id, if present.
func (m *Manager) HandleDisconnect(id string) {
	m.mu.Lock()
	p, ok := m.peers[id]
	delete(m.peers, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := p.pc.Close(); err != nil {
		logging.Get().Warn().Err(err).Str("client", id).Msg("peer connection close failed")
	}
}

// Broadcast sends pose as JSON text to every peer whose data channel is
// open. Per-peer send failures are logged and do not abort the rest.
func (m *Manager) Broadcast(pose types.Pose) {
	payload, err := json.Marshal(pose)
	if err != nil {
		logging.Get().Error().Err(err).Msg("pose marshal failed")
		return
	}

	m.mu.Lock()
	peers := make([]*peer, 0, len(m.peers))
	for _, p := range m.peers {
		peers = append(peers, p)
	}
	m.mu.Unlock()

	for _, p := range peers {
		if p.data == nil || p.data.ReadyState() != webrtc.DataChannelStateOpen {
			continue
		}
		if err := p.data.SendText(string(payload)); err != nil {
			logging.Get().Warn().Err(err).Str("client", p.id).Msg("broadcast send failed")
		}
	}
}

func (m *Manager) sendTo(id string, msg types.SignalMessage) {
	if m.out == nil {
		return
	}
	m.out.Send(types.SignalEnvelope{From: types.ServerID, To: id, Msg: msg})
}

func boolPtr(v bool) *bool { return &v }
