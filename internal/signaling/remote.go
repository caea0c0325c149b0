package signaling

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hollowpeak/tracker-relay/internal/logging"
	"github.com/hollowpeak/tracker-relay/internal/types"
)

// remoteIdleTimeout is the read deadline renewed on every frame; an idle
// connection is nudged with a Ping before it trips (§4.3/§5).
const remoteIdleTimeout = 30 * time.Second

type remoteSession struct {
	conn *websocket.Conn

	sendMu sync.Mutex
	closed chan struct{}
}

func (s *remoteSession) send(envelope types.SignalEnvelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		logging.Get().Error().Err(err).Msg("remote envelope encode failed")
		return
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logging.Get().Warn().Err(err).Msg("remote session write failed")
	}
}

func (s *remoteSession) abort() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	_ = s.conn.Close()
}

// RestartExternalConnection opens a new remote rendezvous session
// carrying roomCode, aborting any prior session first — exactly one may
// exist at a time (§4.3).
func (h *Handler) RestartExternalConnection(rendezvousURL, roomCode string) error {
	h.mu.Lock()
	prev := h.remote
	h.mu.Unlock()
	if prev != nil {
		prev.abort()
	}

	// §6: the room code is a path segment, not a query parameter, and the
	// server side always identifies itself via role=server (the original
	// dials wss://<relay>/{room_code} — see neoserver.rs).
	url := fmt.Sprintf("%s/%s?role=server", strings.TrimRight(rendezvousURL, "/"), roomCode)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("signaling: dial rendezvous: %w", err)
	}

	sess := &remoteSession{conn: conn, closed: make(chan struct{})}
	h.mu.Lock()
	h.remote = sess
	h.mu.Unlock()

	go h.runRemoteReadLoop(sess)
	return nil
}

func (h *Handler) runRemoteReadLoop(sess *remoteSession) {
	defer func() {
		h.mu.Lock()
		if h.remote == sess {
			h.remote = nil
		}
		h.mu.Unlock()
		h.table.removeAllExternal()
		h.inbound <- types.SignalEnvelope{
			From: types.ServerID,
			To:   types.ServerID,
			Msg:  types.SignalMessage{Kind: types.KindExternalDisconnected},
		}
		_ = sess.conn.Close()
	}()

	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(remoteIdleTimeout))
	})

	for {
		_ = sess.conn.SetReadDeadline(time.Now().Add(remoteIdleTimeout))
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				if pingErr := sess.conn.WriteMessage(websocket.PingMessage, nil); pingErr != nil {
					logging.Get().Warn().Err(pingErr).Msg("remote session idle ping failed")
					return
				}
				continue
			}
			select {
			case <-sess.closed:
			default:
				logging.Get().Warn().Err(err).Msg("remote session read failed")
			}
			return
		}

		var envelope types.SignalEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			logging.Get().Warn().Err(err).Str("raw", string(raw)).Msg("remote envelope decode failed")
			continue
		}

		switch envelope.Msg.Kind {
		case types.KindNewPeer:
			h.table.putExternal(envelope.From)
		case types.KindPeerLeft:
			h.table.remove(envelope.From)
		}
		h.inbound <- envelope
	}
}
