/*
Copyright © 2025 Nathan Ollerenshaw <chrome@stupendous.net>
*/
package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	hwcomposer "github.com/matjam/hwcomposer"
	"github.com/matjam/hwcomposer/internal/cli/cmd"
	"github.com/matjam/hwcomposer/internal/cli/cmd/utils"
	"github.com/matjam/hwcomposer/internal/config"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hwcomposerd",
	Short: "A KMS/DRM hardware compositor daemon",
	Long: `hwcomposerd composites and scans out layers on a DRM/KMS display,
assigning overlay planes where possible and falling back to GPU
composition onto an offscreen surface otherwise.`,
	Run: func(c *cobra.Command, args []string) {
		if v, err := c.Flags().GetBool("show-config"); err == nil && v {
			log.Infof("Using config file: %v", viper.ConfigFileUsed())
			log.Info("All settings:")
			utils.PrintJSONColored(viper.AllSettings())
			return
		}

		babyBlue := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
		yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
		green := lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
		if v, err := c.Flags().GetBool("version"); err == nil && v {
			log.Infof("%v version %v © 2025 %v",
				babyBlue.Render("hwcomposerd "),
				green.Render(strings.Trim(hwcomposer.Version, "\n\r ")),
				yellow.Render("Nathan Ollerenshaw"))
			return
		}

		if v, err := c.Flags().GetBool("installconfig"); err == nil && v {
			utils.InstallDefaultConfig()
			return
		}

		cmd.StartManager()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(config.Init, func() {
		if viper.GetBool("debug") {
			log.SetLevel(log.DebugLevel)
		}
	})

	config.RegisterFlags(rootCmd)

	rootCmd.AddCommand(cmd.NewStatusCmd())
	rootCmd.AddCommand(cmd.NewStopCmd())
	rootCmd.AddCommand(cmd.NewPowerCmd())
	rootCmd.AddCommand(cmd.NewRotateCmd())
	rootCmd.AddCommand(cmd.NewGammaCmd())
	rootCmd.AddCommand(cmd.NewContrastCmd())
	rootCmd.AddCommand(cmd.NewBrightnessCmd())
	rootCmd.AddCommand(cmd.NewCloneCmd())
	rootCmd.AddCommand(cmd.NewRefreshCmd())
	rootCmd.AddCommand(cmd.NewGenManCmd(rootCmd))
}
