package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/hwcomposer/internal/ipc"
)

func NewRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force full revalidation and redraw of the next frame",
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := ipc.SendCommand(ipc.Command{Type: ipc.CommandRefresh}); err != nil {
				log.Fatalf("Failed to send 'refresh' command: %v", err)
			}
			log.Info("Refresh requested")
		},
	}
}
