// Package config centralizes hwcomposerd's viper setup, replacing the
// teacher's three conflicting copies of initConfig spread across
// cli/root.go, cli/config.go and cli/flags.go.
package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// File is the --config flag's bound value, populated by RegisterFlags.
var File string

// RegisterFlags attaches the persistent flags every hwcomposerd subcommand
// shares onto rootCmd.
func RegisterFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&File, "config", "", "config file (default is $HOME/.config/hwcomposerd/hwcomposerd.toml)")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentFlags().BoolP("installconfig", "i", false, "Install a default config file")
	rootCmd.PersistentFlags().Bool("show-config", false, "Dump resolved config")
	rootCmd.PersistentFlags().BoolP("background", "b", false, "Run as a daemon")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Print version")

	viper.BindPFlag("background", rootCmd.PersistentFlags().Lookup("background"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// Init loads configuration defaults and the config file, honoring --config
// when given and otherwise searching the XDG locations, mirroring the
// teacher's lookup order.
func Init() {
	if File != "" {
		viper.SetConfigFile(File)
	} else {
		viper.SetConfigName("hwcomposerd")
		viper.SetConfigType("toml")
		viper.AddConfigPath("$HOME/.config/hwcomposerd")
		viper.AddConfigPath("/etc/xdg/hwcomposerd")
	}

	viper.SetDefault("device", "/dev/dri/card0")
	viper.SetDefault("crtc_id", 0)
	viper.SetDefault("width", 1920)
	viper.SetDefault("height", 1080)
	viper.SetDefault("plane_ids", []int{})
	viper.SetDefault("cursor_plane_id", 0)
	viper.SetDefault("idle_frames", 30)
	viper.SetDefault("double_buffering", "double")
	viper.SetDefault("debug", false)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			cobra.CheckErr(err)
		}
	}
}
