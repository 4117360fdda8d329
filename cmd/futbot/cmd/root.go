package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "futbot",
	Short: "A bar-aligned futures trading bot",
	Long: `Futbot trades a single perpetual futures symbol on candle boundaries.

It provides tools for:
  - Running a strategy live or in dry run against the exchange's market data
  - Generating and validating configuration files
  - Querying the trade journal

Secrets are read from the environment or a .env file:
  FUTBOT_API_KEY, FUTBOT_API_SECRET, FUTBOT_DISCORD_WEBHOOK, FUTBOT_POSTGRES_DSN`,
	SilenceUsage: true,
}

var envFiles []string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", []string{".env"}, "dotenv files loaded before the config")
}
