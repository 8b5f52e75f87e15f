package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/hwcomposer/internal/ipc"
)

func NewPowerCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "power [off|doze|dozesuspend|on]",
		Short:     "Set the display power mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"off", "doze", "dozesuspend", "on"},
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := ipc.SendCommand(ipc.Command{Type: ipc.CommandPower, Args: args}); err != nil {
				log.Fatalf("Failed to send 'power' command: %v", err)
			}
			log.Infof("Power mode set to %s", args[0])
		},
	}
}
