// Package supervisor implements the RTC supervisor (§4.4): the central
// task that owns the signaling handler, the peer manager, and the
// native-collector cell, multiplexing signaling events, collector
// messages, external commands, and shutdown into one main loop.
package supervisor

import (
	"fmt"
	"sync"

	"github.com/hollowpeak/tracker-relay/internal/collector"
	"github.com/hollowpeak/tracker-relay/internal/config"
	"github.com/hollowpeak/tracker-relay/internal/events"
	"github.com/hollowpeak/tracker-relay/internal/logging"
	"github.com/hollowpeak/tracker-relay/internal/peermanager"
	"github.com/hollowpeak/tracker-relay/internal/roomcode"
	"github.com/hollowpeak/tracker-relay/internal/signaling"
	"github.com/hollowpeak/tracker-relay/internal/state"
	"github.com/hollowpeak/tracker-relay/internal/types"
)

// collectorOutBuffer sizes the channel the collection loop posts
// messages through; it must never block a 500ms sampling cadence.
const collectorOutBuffer = 32

// Supervisor owns every long-lived component and runs the single main
// loop described in §4.4.
type Supervisor struct {
	Handler *signaling.Handler
	Peers   *peermanager.Manager
	State   *state.Mirror[types.GlobalState]
	Bus     *events.Bus

	cell         *collector.Cell
	variants     []types.OffsetVariant
	rendezvous   string
	collectorOut chan types.CollectorMessage

	commands chan Command
	shutdown chan struct{}

	mu           sync.Mutex
	loopRunning  bool
	loopShutdown chan struct{}
}

// New constructs a Supervisor. rendezvousURL is the base URL for the
// outbound rendezvous fabric (§4.3's remote fabric); variants seeds the
// native collector's offset-variant probe order.
func New(rendezvousURL string, variants []types.OffsetVariant) *Supervisor {
	handler := signaling.New(64)
	bus := events.NewBus()
	sup := &Supervisor{
		Handler:      handler,
		Bus:          bus,
		State:        state.New(types.GlobalState{}),
		cell:         &collector.Cell{},
		variants:     variants,
		rendezvous:   rendezvousURL,
		collectorOut: make(chan types.CollectorMessage, collectorOutBuffer),
		commands:     make(chan Command, 16),
		shutdown:     make(chan struct{}),
	}
	sup.Peers = peermanager.New(handler)
	return sup
}

// Commands returns the channel external drivers (the CLI) send Command
// values on.
func (s *Supervisor) Commands() chan<- Command {
	return s.commands
}

// Shutdown signals the main loop and any active collection loop to stop.
// The signaling handler's command processor, local server and remote
// session are not stopped by it.
func (s *Supervisor) Shutdown() {
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
	s.stopCollectorLoop()
}

// Run drives the main loop until Shutdown is called. It also starts the
// signaling handler's command processor and the global-state-to-event
// forwarder, so callers only need to invoke Run once.
func (s *Supervisor) Run() {
	go s.Handler.RunCommandProcessor()
	go s.forwardStateChanges()

	log := logging.Get()
	for {
		select {
		case <-s.shutdown:
			log.Info().Msg("supervisor shutting down")
			return
		case envelope := <-s.Handler.Inbound():
			s.handleSignalingEvent(envelope)
		case msg := <-s.collectorOut:
			s.handleCollectorMessage(msg)
		case cmd := <-s.commands:
			s.handleCommand(cmd)
		}
	}
}

func (s *Supervisor) forwardStateChanges() {
	for value := range s.State.Subscribe() {
		s.Bus.Emit(events.KindGlobalStateChange, value)
	}
}

func (s *Supervisor) handleSignalingEvent(envelope types.SignalEnvelope) {
	switch envelope.Msg.Kind {
	case types.KindNewLocalPeer, types.KindNewPeer:
		s.Peers.HandleNewClient(envelope.From)
		s.tryStartCollector()
	case types.KindPeerLeft:
		s.Peers.HandleDisconnect(envelope.From)
	case types.KindAnswer, types.KindIceCandidate:
		s.Peers.HandleSignaling(envelope)
	case types.KindExternalDisconnected:
		s.State.Set(func(old types.GlobalState) types.GlobalState {
			old.ExternalRoomCode = ""
			return old
		})
	default:
		logging.Get().Info().Str("kind", string(envelope.Msg.Kind)).Msg("unhandled signaling event")
	}
}

func (s *Supervisor) handleCollectorMessage(msg types.CollectorMessage) {
	switch msg.Kind {
	case types.CollectorData:
		s.Bus.Emit(events.KindLocationChange, msg.Pose)
		s.Peers.Broadcast(msg.Pose)
	case types.CollectorProcessTerminated:
		s.State.Set(func(old types.GlobalState) types.GlobalState {
			old.ProcessAttached = false
			old.ActiveOffsetVariant = ""
			return old
		})
	case types.CollectorTemporalError:
		s.Bus.Emit(events.KindTrackerError, msg.ErrorMessage)
	case types.CollectorOffsetFound:
		s.State.Set(func(old types.GlobalState) types.GlobalState {
			old.ActiveOffsetVariant = msg.OffsetName
			return old
		})
	}
}

func (s *Supervisor) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdAttachProcess:
		s.handleAttachProcess(cmd)
	case CmdDetachProcess:
		s.handleDetachProcess()
	case CmdRestartSignalingServer:
		s.handleRestartSignalingServer()
	case CmdRestartExternalConnection:
		s.handleRestartExternalConnection(cmd)
	}
}

func (s *Supervisor) handleAttachProcess(cmd Command) {
	c, err := collector.Open(cmd.ProcessName, s.variants)
	if err != nil {
		reply(cmd.Reply, err)
		return
	}
	s.cell.Fill(c)
	s.State.Set(func(old types.GlobalState) types.GlobalState {
		old.ProcessAttached = true
		return old
	})
	reply(cmd.Reply, nil)
	s.tryStartCollector()
}

func (s *Supervisor) handleDetachProcess() {
	s.stopCollectorLoop()
	s.cell.Clear()
	s.State.Set(func(old types.GlobalState) types.GlobalState {
		old.ProcessAttached = false
		old.ActiveOffsetVariant = ""
		return old
	})
}

func (s *Supervisor) handleRestartSignalingServer() {
	cfg, err := config.Load()
	if err != nil {
		s.Bus.Emit(events.KindErrorToast, fmt.Sprintf("config load failed: %v", err))
		return
	}
	url, err := s.Handler.RestartLocalServer(cfg.IP, cfg.Port)
	if err != nil {
		s.Bus.Emit(events.KindErrorToast, fmt.Sprintf("server start failed (port %d): %v", cfg.Port, err))
		s.State.Set(func(old types.GlobalState) types.GlobalState {
			old.ServerListening = false
			old.LocalListenURL = ""
			return old
		})
		return
	}
	s.State.Set(func(old types.GlobalState) types.GlobalState {
		old.ServerListening = true
		old.LocalListenURL = url
		return old
	})
}

func (s *Supervisor) handleRestartExternalConnection(cmd Command) {
	code := roomcode.Generate()
	if err := s.Handler.RestartExternalConnection(s.rendezvous, code); err != nil {
		s.State.Set(func(old types.GlobalState) types.GlobalState {
			old.ExternalRoomCode = ""
			return old
		})
		s.Bus.Emit(events.KindErrorToast, fmt.Sprintf("external connection failed: %v", err))
		reply(cmd.Reply, err)
		return
	}
	s.State.Set(func(old types.GlobalState) types.GlobalState {
		old.ExternalRoomCode = code
		return old
	})
	reply(cmd.Reply, nil)
}

// tryStartCollector starts the collection loop when the cell is full and
// no loop is already running — "eligible" per §4.4's later design, which
// does not additionally require a connected peer.
func (s *Supervisor) tryStartCollector() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loopRunning || !s.cell.Full() {
		return
	}
	s.loopRunning = true
	loopShutdown := make(chan struct{})
	s.loopShutdown = loopShutdown

	go func() {
		collector.RunLoop(s.cell, s.collectorOut, loopShutdown)
		s.mu.Lock()
		s.loopRunning = false
		s.loopShutdown = nil
		s.mu.Unlock()
	}()
}

func (s *Supervisor) stopCollectorLoop() {
	s.mu.Lock()
	sd := s.loopShutdown
	s.loopShutdown = nil
	s.mu.Unlock()
	if sd != nil {
		close(sd)
	}
}

func reply(ch chan error, err error) {
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}
