package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/hwcomposer/internal/cli/cmd/utils"
	"github.com/matjam/hwcomposer/internal/ipc"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get hwcomposerd status",
		Long:  `Returns the current status of the hwcomposerd process.`,
		Run: func(cmd *cobra.Command, args []string) {
			status, err := ipc.GetStatus()
			if err != nil {
				log.Errorf("Error fetching status: %v", err)
				return
			}

			utils.PrintJSONColored(status)
		},
	}
}
