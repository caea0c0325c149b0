package signaling

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hollowpeak/tracker-relay/internal/logging"
	"github.com/hollowpeak/tracker-relay/internal/types"
)

// localUpgrader mirrors the teacher's permissive-CORS Upgrader
// (websocket/websocket.go): the shell is a LAN tool, not a public
// service, so origin checks are intentionally lax.
var localUpgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type localServer struct {
	httpServer *http.Server
	listenURL  string
}

// RestartLocalServer performs §4.3's "Restart local server": tear down
// the previous listener (if any), bind a fresh one at ip:port, and start
// serving. Returns the new listen URL, or an error the caller should
// surface as a UI toast. The handler is mounted at path "/" per §6.
func (h *Handler) RestartLocalServer(ip string, port uint16) (string, error) {
	h.mu.Lock()
	prev := h.local
	h.mu.Unlock()

	if prev != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = prev.httpServer.Shutdown(ctx)
	}

	addr := fmt.Sprintf("%s:%d", ip, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("signaling: bind %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleLocalConnection)
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Get().Error().Err(err).Msg("local signaling server stopped")
		}
	}()

	listenURL := fmt.Sprintf("ws://%s/", addr)
	h.mu.Lock()
	h.local = &localServer{httpServer: srv, listenURL: listenURL}
	h.mu.Unlock()

	return listenURL, nil
}

func (h *Handler) handleLocalConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := localUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Get().Error().Err(err).Msg("local signaling upgrade failed")
		return
	}

	id := uuid.NewString()
	tx := make(chan []byte, clientSendBuffer)
	h.table.putLocal(id, tx)
	h.inbound <- types.SignalEnvelope{From: id, To: types.ServerID, Msg: types.SignalMessage{Kind: types.KindNewLocalPeer}}

	closed := make(chan struct{})
	go h.localWritePump(conn, tx, closed)
	h.localReadPump(conn, id, tx, closed)
}

func (h *Handler) localWritePump(conn *websocket.Conn, tx <-chan []byte, closed <-chan struct{}) {
	for {
		select {
		case msg, ok := <-tx:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (h *Handler) localReadPump(conn *websocket.Conn, id string, tx chan []byte, closed chan struct{}) {
	defer func() {
		close(closed)
		h.table.remove(id)
		h.inbound <- types.SignalEnvelope{From: id, To: types.ServerID, Msg: types.SignalMessage{Kind: types.KindPeerLeft}}
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, ok := decodeInboundMessage(raw)
		if !ok {
			continue
		}
		h.inbound <- types.SignalEnvelope{From: id, To: types.ServerID, Msg: msg}
	}
}
