package signaling

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/hollowpeak/tracker-relay/internal/logging"
	"github.com/hollowpeak/tracker-relay/internal/types"
)

// encodeEnvelope serializes the Msg half of an envelope for delivery to
// a local client, which only ever sees the tagged-union message, not the
// from/to wrapper (the wrapper is reconstructed by the handler on the
// way back in).
func encodeEnvelope(envelope types.SignalEnvelope) ([]byte, error) {
	return json.Marshal(envelope.Msg)
}

// peekType cheaply inspects a raw frame's "type" field (gjson, no full
// decode) so malformed frames can be dropped with a useful log line
// before paying for json.Unmarshal's tagged-union dispatch.
func peekType(raw []byte) (string, bool) {
	result := gjson.GetBytes(raw, "type")
	if !result.Exists() {
		return "", false
	}
	return result.String(), true
}

// decodeInboundMessage parses a raw local-fabric frame into a
// SignalMessage, peeking its type tag first to produce a clearer log on
// malformed input than a generic unmarshal error would.
func decodeInboundMessage(raw []byte) (types.SignalMessage, bool) {
	if _, ok := peekType(raw); !ok {
		logging.Get().Warn().Str("raw", string(raw)).Msg("signaling frame missing type tag")
		return types.SignalMessage{}, false
	}
	var msg types.SignalMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logging.Get().Warn().Err(err).Str("raw", string(raw)).Msg("signaling frame decode failed")
		return types.SignalMessage{}, false
	}
	return msg, true
}

func logRouteMiss(to string) {
	logging.Get().Info().Str("to", to).Msg("no route for signaling envelope, dropping")
}

func logEncodeFailure(to string, err error) {
	logging.Get().Error().Err(err).Str("to", to).Msg("signaling envelope encode failed")
}

func logSendOverflow(to string) {
	logging.Get().Warn().Str("to", to).Msg("client delivery channel overflow, dropping")
}
