package cmd

import (
	"strings"

	"github.com/openclaw/standup/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "standup",
	Short: "Round-robin standup coordinator for autonomous agents",
	Long: `Standup drives a fixed roster of autonomous participants through a
recurring structured meeting: each participant speaks once in canonical
order, replies are parsed into durable action items, directional signals
are reconciled across participants, and a synthesized day report is
produced at the end of every round.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/standup/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/standup")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("STANDUP")
	// Replace dots with underscores for nested keys in env vars
	// e.g., STANDUP_TIMING_TURN_TIMEOUT_SECONDS for timing.turn_timeout_seconds
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
