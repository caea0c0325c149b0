package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hollowpeak/tracker-relay/internal/collector"
	"github.com/hollowpeak/tracker-relay/internal/offsets"
	"github.com/hollowpeak/tracker-relay/internal/types"
)

// fakeCollector is a minimal collector.Collector double driving the
// supervisor's loop without a real process attached.
type fakeCollector struct {
	terminateAfter int
	sampled        int
}

func (f *fakeCollector) Sample() (types.Pose, error) {
	f.sampled++
	if f.sampled > f.terminateAfter {
		return types.Pose{}, types.ErrProcessTerminated
	}
	return types.Pose{X: float32(f.sampled)}, nil
}

func (f *fakeCollector) IsAlive() bool                { return true }
func (f *fakeCollector) ActiveOffset() (string, bool) { return "v3.0.0", true }
func (f *fakeCollector) Close()                       {}

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	s := New("wss://example.invalid/relay", offsets.Builtin)
	go s.Run()
	t.Cleanup(s.Shutdown)
	return s
}

func TestNewLocalPeerCreatesPeerButNotCollectorWithoutAttach(t *testing.T) {
	s := newTestSupervisor(t)

	s.Handler.Inbound() // sanity: channel exists
	s.handleSignalingEventForTest(types.SignalEnvelope{
		From: "client-1",
		To:   types.ServerID,
		Msg:  types.SignalMessage{Kind: types.KindNewLocalPeer},
	})

	require.Equal(t, 1, s.Peers.PeerCount())
	require.False(t, s.cell.Full())
}

func TestAttachProcessFailureRepliesError(t *testing.T) {
	s := newTestSupervisor(t)

	reply := make(chan error, 1)
	s.Commands() <- Command{Kind: CmdAttachProcess, ProcessName: "nonexistent.exe", Reply: reply}

	select {
	case err := <-reply:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("expected a reply")
	}
	require.False(t, s.State.Get().ProcessAttached)
}

func TestDetachProcessIsNoopWhenNothingAttached(t *testing.T) {
	s := newTestSupervisor(t)
	s.Commands() <- Command{Kind: CmdDetachProcess}
	time.Sleep(20 * time.Millisecond)
	require.False(t, s.State.Get().ProcessAttached)
}

// handleSignalingEventForTest exposes the unexported dispatch so tests can
// drive it directly instead of going through a real websocket connection.
func (s *Supervisor) handleSignalingEventForTest(envelope types.SignalEnvelope) {
	s.handleSignalingEvent(envelope)
}

// TestProcessTerminationFlipsStateOnce covers §8 S3: a collector that
// reports ErrProcessTerminated must flip ProcessAttached to false exactly
// once and stop the sampling loop, rather than spinning on a dead process.
func TestProcessTerminationFlipsStateOnce(t *testing.T) {
	s := newTestSupervisor(t)
	collector.SampleInterval = time.Millisecond
	defer func() { collector.SampleInterval = 500 * time.Millisecond }()

	sub := s.State.Subscribe()

	s.cell.Fill(&fakeCollector{terminateAfter: 2})
	s.State.Set(func(old types.GlobalState) types.GlobalState {
		old.ProcessAttached = true
		return old
	})
	<-sub // drain the attach notification above

	s.tryStartCollectorForTest()

	// The first successful sample announces the cached variant, which is
	// itself a state change, before termination is reported.
	select {
	case got := <-sub:
		require.True(t, got.ProcessAttached)
		require.Equal(t, "v3.0.0", got.ActiveOffsetVariant)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a state change for the found offset variant")
	}

	select {
	case got := <-sub:
		require.False(t, got.ProcessAttached)
		require.Empty(t, got.ActiveOffsetVariant)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a state change after process termination")
	}

	select {
	case got := <-sub:
		t.Fatalf("expected no further state change after termination, got %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

// tryStartCollectorForTest exposes the unexported eligibility-gated start
// so tests can drive it without a real peer connecting first.
func (s *Supervisor) tryStartCollectorForTest() {
	s.tryStartCollector()
}

// TestExternalDisconnectedClearsRoomCode covers §4.3's remote-fabric
// teardown contract: when the rendezvous session itself drops, the
// external room code must be cleared from global state.
func TestExternalDisconnectedClearsRoomCode(t *testing.T) {
	s := newTestSupervisor(t)

	s.State.Set(func(old types.GlobalState) types.GlobalState {
		old.ExternalRoomCode = "ABCDEFGH"
		return old
	})

	s.handleSignalingEventForTest(types.SignalEnvelope{
		From: types.ServerID,
		To:   types.ServerID,
		Msg:  types.SignalMessage{Kind: types.KindExternalDisconnected},
	})

	require.Empty(t, s.State.Get().ExternalRoomCode)
}
