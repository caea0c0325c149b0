package signaling

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/hollowpeak/tracker-relay/internal/types"
)

func TestSwitchTablePutGetRemove(t *testing.T) {
	tbl := newSwitchTable()
	_, ok := tbl.get("a")
	require.False(t, ok)

	tbl.putLocal("a", make(chan []byte, 1))
	r, ok := tbl.get("a")
	require.True(t, ok)
	require.Equal(t, routeLocal, r.kind)

	tbl.putExternal("b")
	r, ok = tbl.get("b")
	require.True(t, ok)
	require.Equal(t, routeExternal, r.kind)

	require.Equal(t, 2, tbl.size())
	tbl.remove("a")
	require.Equal(t, 1, tbl.size())

	tbl.removeAllExternal()
	require.Equal(t, 0, tbl.size())
}

func TestLocalFabricRegistersNewLocalPeerAndForwardsMessages(t *testing.T) {
	h := New(16)

	srv := httptest.NewServer(http.HandlerFunc(h.handleLocalConnection))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	env := waitForEnvelope(t, h, time.Second)
	require.Equal(t, types.KindNewLocalPeer, env.Msg.Kind)
	require.Equal(t, 1, h.PeerCount())

	require.NoError(t, conn.WriteJSON(types.SignalMessage{Kind: types.KindAnswer, SDP: "v=0"}))

	env2 := waitForEnvelope(t, h, time.Second)
	require.Equal(t, types.KindAnswer, env2.Msg.Kind)
	require.Equal(t, "v=0", env2.Msg.SDP)
	require.Equal(t, env.From, env2.From)

	conn.Close()
	env3 := waitForEnvelope(t, h, time.Second)
	require.Equal(t, types.KindPeerLeft, env3.Msg.Kind)
}

// TestRestartLocalServerBindConflict covers §8 S4: binding a port already
// in use must return an error the caller can surface as a toast.
func TestRestartLocalServerBindConflict(t *testing.T) {
	blocker, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer blocker.Close()
	port := blocker.Addr().(*net.TCPAddr).Port

	h := New(16)
	_, err = h.RestartLocalServer("127.0.0.1", uint16(port))
	require.Error(t, err)
	require.Contains(t, err.Error(), "bind")
}

func waitForEnvelope(t *testing.T, h *Handler, timeout time.Duration) types.SignalEnvelope {
	t.Helper()
	select {
	case env := <-h.Inbound():
		return env
	case <-time.After(timeout):
		t.Fatal("timed out waiting for inbound envelope")
		return types.SignalEnvelope{}
	}
}
