package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/futbot/broker"
	"github.com/rustyeddy/futbot/strategy"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("futbot version %s\n", version)
		fmt.Printf("gateways: %v\n", broker.Gateways())
		fmt.Printf("strategies: %v\n", strategy.Names())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
