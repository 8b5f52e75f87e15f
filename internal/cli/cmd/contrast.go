package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/hwcomposer/internal/ipc"
)

func NewContrastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contrast <r> <g> <b>",
		Short: "Set the per-channel contrast, as 8-bit values centered on 0x80",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := ipc.SendCommand(ipc.Command{Type: ipc.CommandContrast, Args: args}); err != nil {
				log.Fatalf("Failed to send 'contrast' command: %v", err)
			}
			log.Info("Contrast updated")
		},
	}
}
