package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swap-exec/pkg/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded settlements",
	Long: `List the settlements recorded by this tool, newest first.

Examples:
  swap-exec history
  swap-exec history --limit 5
  swap-exec history --json`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of settlements to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.NewStorage("")
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	receipts := store.List()

	// Newest first
	for i, j := 0, len(receipts)-1; i < j; i, j = i+1, j-1 {
		receipts[i], receipts[j] = receipts[j], receipts[i]
	}
	if historyLimit > 0 && len(receipts) > historyLimit {
		receipts = receipts[:historyLimit]
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(receipts, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(receipts) == 0 {
		fmt.Println("\nNo settlements recorded yet.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                    SETTLEMENT HISTORY")
	fmt.Println(strings.Repeat("=", 70))

	for _, receipt := range receipts {
		fmt.Printf("\n  %s\n", color.HiBlackString(receipt.Timestamp))
		fmt.Printf("    %s %s -> %s %s\n",
			receipt.InputAmount, color.YellowString(receipt.InputAsset),
			receipt.AmountOut, color.YellowString(receipt.OutputAsset))
		fmt.Printf("    Recipient: %s\n", color.CyanString(receipt.Recipient))
		if receipt.TxHash != "" {
			fmt.Printf("    Tx:        %s\n", color.HiBlackString(receipt.TxHash))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
