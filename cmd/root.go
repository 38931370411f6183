package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swap-exec",
	Short: "A CLI for settling token swaps through an on-chain exchange router",
	Long: `swap-exec settles token swaps on an EVM chain: it takes custody of the
input token, authorizes the configured exchange router for exactly the
amount being swapped, delegates the exchange, and verifies the reported
output against the caller's minimum before reporting success.

Examples:
  swap-exec swap 1 USDC to WETH min 0.0004 --owner 0x1234...
  swap-exec quote 1 USDC to WETH
  swap-exec list-tokens
  swap-exec status <tx-hash>
  swap-exec history`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}
