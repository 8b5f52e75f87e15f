package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/hwcomposer/internal/ipc"
)

func NewGammaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gamma <r> <g> <b>",
		Short: "Set the per-channel gamma correction (floating point)",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := ipc.SendCommand(ipc.Command{Type: ipc.CommandGamma, Args: args}); err != nil {
				log.Fatalf("Failed to send 'gamma' command: %v", err)
			}
			log.Info("Gamma updated")
		},
	}
}
