package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marketd",
	Short: "marketd - fixed-price NFT marketplace ledger daemon",
	Long: `marketd runs the marketplace ledger and settlement engine: fixed-price
listings, time-bound offers, atomic swap of payment for asset ownership
across the native and fungible-token payment rails, and a WebSocket
feed of ledger change events.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "configs/config.yaml", "configuration file path")
}
