package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swap-exec/config"
)

var filterSymbol string

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List configured tokens",
	Long: `List the tokens configured for swapping, with their contract addresses
and decimals.

Examples:
  swap-exec list-tokens
  swap-exec list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	filtered := make(map[string]config.TokenConfig)
	for symbol, token := range cfg.Tokens {
		if filterSymbol != "" && !strings.Contains(strings.ToUpper(symbol), strings.ToUpper(filterSymbol)) {
			continue
		}
		filtered[symbol] = token
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(filtered, cfg.SettlementAsset)
}

func displayTokens(tokens map[string]config.TokenConfig, settlementAsset string) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens configured. Add a tokens section to .swap-exec.yaml.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                       CONFIGURED TOKENS")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()

	symbols := make([]string, 0, len(tokens))
	for symbol := range tokens {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		token := tokens[symbol]
		marker := ""
		if strings.EqualFold(token.Address, settlementAsset) {
			marker = color.GreenString(" (settlement asset)")
		}
		fmt.Printf("  %-10s  %2d decimals  %s%s\n",
			color.YellowString(strings.ToUpper(symbol)),
			token.Decimals,
			color.HiBlackString(token.Address),
			marker)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}
