package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/hwcomposer/internal/ipc"
)

func NewRotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "rotate [0|90|180|270]",
		Short:     "Set the display rotation, in degrees clockwise",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"0", "90", "180", "270"},
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := ipc.SendCommand(ipc.Command{Type: ipc.CommandRotate, Args: args}); err != nil {
				log.Fatalf("Failed to send 'rotate' command: %v", err)
			}
			log.Infof("Rotation set to %s degrees", args[0])
		},
	}
}
