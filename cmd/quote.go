package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swap-exec/config"
	"swap-exec/pkg/parser"
	"swap-exec/pkg/quote"
	"swap-exec/pkg/types"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <input-token> to <output-token>",
	Short: "Fetch an indicative quote without settling",
	Long: `Fetch an indicative price and liquidity-source breakdown from the
configured quote API. This is reporting only: no approvals are granted and
no tokens move.

Examples:
  swap-exec quote 1 USDC to WETH
  swap-exec quote 0.5 WETH to USDC --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	commandStr := strings.Join(args, " ")
	quoteReq, err := parser.ParseSwapCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if cfg.Quote.BaseURL == "" {
		printError(fmt.Errorf("quote API not configured. Set quote.base_url in .swap-exec.yaml"))
		os.Exit(1)
	}

	inputToken, err := resolveToken(cfg, quoteReq.InputToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	outputToken, err := resolveToken(cfg, quoteReq.OutputToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	sellAmount, err := types.ParseUnits(quoteReq.Amount, inputToken.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	quoteClient := quote.NewClient(cfg.Quote.BaseURL, cfg.Quote.APIKey)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	q, err := quoteClient.GetQuote(context.Background(), inputToken.Address, outputToken.Address, sellAmount)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(q, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayQuote(q, quoteReq, outputToken)
}

func displayQuote(q *quote.Quote, quoteReq *parser.SwapCommand, outputToken config.TokenConfig) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                  INDICATIVE QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	buyAmount, ok := new(big.Int).SetString(q.BuyAmount, 10)
	expected := q.BuyAmount
	if ok {
		expected = types.FormatUnits(buyAmount, outputToken.Decimals)
	}

	fmt.Printf("\n  Sell:      %s %s\n", quoteReq.Amount, color.YellowString(quoteReq.InputToken))
	fmt.Printf("  Buy:       ~%s %s\n", expected, color.YellowString(quoteReq.OutputToken))
	fmt.Printf("  Price:     %s %s per %s\n", q.Price, quoteReq.OutputToken, quoteReq.InputToken)
	if q.EstimatedGas != "" {
		fmt.Printf("  Est. Gas:  %s\n", q.EstimatedGas)
	}

	displaySources(q)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displaySources(q *quote.Quote) {
	active := q.ActiveSources()
	if len(active) == 0 {
		return
	}

	fmt.Println("\n  Liquidity sources:")
	for _, source := range active {
		fmt.Printf("    %-20s %s\n", color.CyanString(source.Name), source.Proportion)
	}
}
