package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowpeak/tracker-relay/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "trackerrelay",
	Short: "Relay a tracked player pose over WebRTC data channels",
	Long: `trackerrelay reads a player's world-space pose out of a running game
process and streams it to connected viewers over WebRTC data channels,
signaled either by a local LAN WebSocket server or an outbound rendezvous
relay.

This binary stands in for the desktop shell: it drives the same core
supervisor the GUI would, through command-line flags instead of a tray
icon. It reads no commands from stdin.`,
}

func main() {
	logging.Init()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
