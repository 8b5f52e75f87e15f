package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/hwcomposer/internal/ipc"
)

func NewBrightnessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brightness <r> <g> <b>",
		Short: "Set the per-channel brightness, as 8-bit values centered on 0x80",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := ipc.SendCommand(ipc.Command{Type: ipc.CommandBrightness, Args: args}); err != nil {
				log.Fatalf("Failed to send 'brightness' command: %v", err)
			}
			log.Info("Brightness updated")
		},
	}
}
