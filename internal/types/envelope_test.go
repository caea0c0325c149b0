package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalMessageRoundTripsDataNesting(t *testing.T) {
	mid := "0"
	idx := uint16(0)

	cases := []struct {
		name string
		msg  SignalMessage
	}{
		{"offer", SignalMessage{Kind: KindOffer, SDP: "v=0 offer"}},
		{"answer", SignalMessage{Kind: KindAnswer, SDP: "v=0 answer"}},
		{"ice-candidate", SignalMessage{Kind: KindIceCandidate, IceCandidate: &IceCandidateInit{
			Candidate:     "candidate:1 1 UDP 1 127.0.0.1 1 typ host",
			SDPMid:        &mid,
			SDPMLineIndex: &idx,
		}}},
		{"new-peer", SignalMessage{Kind: KindNewPeer}},
		{"peer-left", SignalMessage{Kind: KindPeerLeft}},
		{"new-local-peer", SignalMessage{Kind: KindNewLocalPeer}},
		{"external-disconnected", SignalMessage{Kind: KindExternalDisconnected}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.msg)
			require.NoError(t, err)

			var got SignalMessage
			require.NoError(t, json.Unmarshal(data, &got))
			require.Equal(t, tc.msg, got)
		})
	}
}

func TestSignalMessageAnswerWireFormatNestsPayloadUnderData(t *testing.T) {
	data, err := json.Marshal(SignalMessage{Kind: KindAnswer, SDP: "v=0"})
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	require.Equal(t, "answer", generic["type"])

	nested, ok := generic["data"].(map[string]any)
	require.True(t, ok, "expected \"data\" to be a nested object, got %#v", generic["data"])
	require.Equal(t, "v=0", nested["sdp"])

	_, topLevelSDP := generic["sdp"]
	require.False(t, topLevelSDP, "sdp must not be flattened to the top level")
}

func TestSignalMessageAnswerParsesSpecExampleShape(t *testing.T) {
	raw := []byte(`{"type":"answer","data":{"sdp":"v=0 test answer"}}`)

	var msg SignalMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, KindAnswer, msg.Kind)
	require.Equal(t, "v=0 test answer", msg.SDP)
}

func TestIceCandidateZeroMLineIndexSurvivesRoundTrip(t *testing.T) {
	idx := uint16(0)
	msg := SignalMessage{Kind: KindIceCandidate, IceCandidate: &IceCandidateInit{
		Candidate:     "candidate:1 1 UDP 1 127.0.0.1 1 typ host",
		SDPMLineIndex: &idx,
	}}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var got SignalMessage
	require.NoError(t, json.Unmarshal(data, &got))
	require.NotNil(t, got.IceCandidate.SDPMLineIndex)
	require.Equal(t, uint16(0), *got.IceCandidate.SDPMLineIndex)
}
