package types

import (
	"encoding/json"
	"fmt"
)

// ServerID is the reserved "from"/"to" id that names the host side of a
// signaling exchange.
const ServerID = "SERVER"

// MessageKind tags the union carried by a SignalEnvelope.
type MessageKind string

const (
	KindOffer        MessageKind = "offer"
	KindAnswer       MessageKind = "answer"
	KindIceCandidate MessageKind = "ice-candidate"
	KindNewPeer      MessageKind = "new-peer"
	KindPeerLeft     MessageKind = "peer-left"
	KindNewLocalPeer MessageKind = "new-local-peer"

	// KindExternalDisconnected is internal to this process: the remote
	// fabric's read loop emits it to the supervisor when the rendezvous
	// session itself drops (not when one external viewer leaves), so the
	// supervisor can clear GlobalState.ExternalRoomCode. It is never sent
	// or received over a wire connection.
	KindExternalDisconnected MessageKind = "external-disconnected"
)

// IceCandidateInit mirrors the subset of RTCIceCandidateInit carried over
// the wire.
type IceCandidateInit struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// SignalMessage is the tagged-union payload of a SignalEnvelope.
type SignalMessage struct {
	Kind MessageKind `json:"type"`

	SDP          string            `json:"sdp,omitempty"`
	IceCandidate *IceCandidateInit `json:"candidate,omitempty"`
}

// SignalEnvelope is the (from, to, message) tuple exchanged between the
// peer manager and the signaling handler, and between the signaling
// handler and the remote rendezvous relay.
type SignalEnvelope struct {
	From string        `json:"from"`
	To   string        `json:"to"`
	Msg  SignalMessage `json:"msg"`
}

// sdpData and iceCandidateData are the shapes nested under "data" for the
// offer/answer and ice-candidate variants, matching the original's
// `#[serde(tag = "type", content = "data")]` encoding.
type sdpData struct {
	SDP string `json:"sdp"`
}

// MarshalJSON produces the kebab-case tagged-union wire format §6 requires:
// {"type":"offer","data":{"sdp":"..."}}, payload nested under "data" per
// the original's serde `content = "data"` tagging, rather than flattened
// into the envelope's top level.
func (m SignalMessage) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case KindOffer, KindAnswer:
		return json.Marshal(struct {
			Type MessageKind `json:"type"`
			Data sdpData     `json:"data"`
		}{m.Kind, sdpData{SDP: m.SDP}})
	case KindIceCandidate:
		return json.Marshal(struct {
			Type MessageKind       `json:"type"`
			Data *IceCandidateInit `json:"data"`
		}{m.Kind, m.IceCandidate})
	case KindNewPeer, KindPeerLeft, KindNewLocalPeer, KindExternalDisconnected:
		return json.Marshal(struct {
			Type MessageKind `json:"type"`
		}{m.Kind})
	default:
		return nil, fmt.Errorf("signal message: unknown kind %q", m.Kind)
	}
}

// UnmarshalJSON decodes the tagged union, peeking the "type" field first.
func (m *SignalMessage) UnmarshalJSON(data []byte) error {
	var head struct {
		Type MessageKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("signal message: %w", err)
	}
	m.Kind = head.Type

	switch head.Type {
	case KindOffer, KindAnswer:
		var body struct {
			Data sdpData `json:"data"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return fmt.Errorf("signal message %s: %w", head.Type, err)
		}
		m.SDP = body.Data.SDP
	case KindIceCandidate:
		var body struct {
			Data *IceCandidateInit `json:"data"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return fmt.Errorf("signal message %s: %w", head.Type, err)
		}
		m.IceCandidate = body.Data
	case KindNewPeer, KindPeerLeft, KindNewLocalPeer, KindExternalDisconnected:
		// no body
	default:
		return fmt.Errorf("signal message: unrecognized type %q", head.Type)
	}
	return nil
}
