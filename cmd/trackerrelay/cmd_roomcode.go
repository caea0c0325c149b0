package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollowpeak/tracker-relay/internal/roomcode"
)

var roomCodeCmd = &cobra.Command{
	Use:   "room-code",
	Short: "Print one freshly generated rendezvous room code",
	Long:  "Exercises the room-code generator standalone, useful when operating the rendezvous relay independently of a running trackerrelay instance.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(roomcode.Generate())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(roomCodeCmd)
}
