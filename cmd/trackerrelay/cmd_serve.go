package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hollowpeak/tracker-relay/internal/config"
	"github.com/hollowpeak/tracker-relay/internal/events"
	"github.com/hollowpeak/tracker-relay/internal/logging"
	"github.com/hollowpeak/tracker-relay/internal/offsetloader"
	"github.com/hollowpeak/tracker-relay/internal/supervisor"
)

var (
	serveProcessName    string
	serveOffsetURLs     []string
	serveRendezvousURL  string
	serveIP             string
	servePort           int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the signaling server and the relay supervisor",
	Long: `serve boots the RTC supervisor: the local signaling server, the peer
manager, and (once a process is attached) the native collector's
sampling loop. It runs until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveProcessName, "process", "", "Executable name to auto-attach on startup (optional)")
	serveCmd.Flags().StringArrayVar(&serveOffsetURLs, "offset-url", nil, "Offset-variant source URL, repeatable, tried in order")
	serveCmd.Flags().StringVar(&serveRendezvousURL, "rendezvous-url", "wss://relay.tracker-relay.invalid", "Base URL of the remote rendezvous relay (room code is appended as a path segment)")
	serveCmd.Flags().StringVar(&serveIP, "ip", "", "Override the configured bind address")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override the configured bind port")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	overridden := false
	if serveIP != "" {
		cfg.IP = serveIP
		overridden = true
	}
	if servePort != 0 {
		if servePort < 0 || servePort > 0xffff {
			return fmt.Errorf("--port %d out of range (0-65535)", servePort)
		}
		cfg.Port = uint16(servePort)
		overridden = true
	}
	if overridden {
		// The supervisor reloads config.json itself when it (re)starts the
		// local signaling server, so flag overrides must land on disk
		// before CmdRestartSignalingServer is sent below.
		if err := config.Write(cfg); err != nil {
			return fmt.Errorf("persist config overrides: %w", err)
		}
	}

	cachePath, err := config.OffsetCachePath()
	if err != nil {
		return fmt.Errorf("resolve offset cache path: %w", err)
	}

	bus := events.NewBus()
	urls := offsetloader.DefaultURLs(offsetloader.SplitURLs(serveOffsetURLs))
	loader := offsetloader.New(urls, cachePath, bus)
	variants := loader.Load()
	log.Info().Int("variantCount", len(variants)).Msg("offset variants loaded")

	sup := supervisor.New(serveRendezvousURL, variants)
	sup.Bus = bus
	go logEvents(sup)
	go sup.Run()

	sup.Commands() <- supervisor.Command{Kind: supervisor.CmdRestartSignalingServer}

	if serveProcessName != "" {
		reply := make(chan error, 1)
		sup.Commands() <- supervisor.Command{Kind: supervisor.CmdAttachProcess, ProcessName: serveProcessName, Reply: reply}
		if err := <-reply; err != nil {
			log.Warn().Err(err).Str("process", serveProcessName).Msg("initial attach failed, continuing without a collector")
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	sup.Shutdown()
	return nil
}

func logEvents(sup *supervisor.Supervisor) {
	for ev := range sup.Bus.Subscribe() {
		logging.Get().Info().Str("event", string(ev.Kind)).Interface("payload", ev.Payload).Msg("event")
	}
}
