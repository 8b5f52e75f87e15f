package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/hwcomposer/internal/ipc"
)

func NewCloneCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "clone [on|off]",
		Short:     "Enable or disable cloned-mode composition",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := ipc.SendCommand(ipc.Command{Type: ipc.CommandClone, Args: args}); err != nil {
				log.Fatalf("Failed to send 'clone' command: %v", err)
			}
			log.Infof("Clone mode set to %s", args[0])
		},
	}
}
