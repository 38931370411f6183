package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swap-exec/config"
	"swap-exec/pkg/asset"
	"swap-exec/pkg/history"
	"swap-exec/pkg/parser"
	"swap-exec/pkg/quote"
	"swap-exec/pkg/router"
	"swap-exec/pkg/settlement"
	"swap-exec/pkg/types"
)

var (
	ownerAddr     string
	recipientAddr string
	noConfirm     bool
	noPreview     bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <input-token> to <output-token> [min <amount>]",
	Short: "Settle a token swap through the exchange router",
	Long: `Settle a token swap: pull the input token from the owner, authorize the
router for exactly the swapped amount, execute the exchange, and verify the
reported output against the minimum.

IMPORTANT:
  - The owner must have approved the executor address for at least the
    input amount beforehand. The approval is consumed by the settlement,
    so a retry needs a fresh one.
  - Without a "min" clause the output floor is zero.

Examples:
  # Swap with an explicit output floor
  swap-exec swap 1 USDC to WETH min 0.0004 --owner 0x1234... --recipient 0x5678...

  # Recipient defaults to the owner
  swap-exec swap 0.5 WETH to USDC min 1400 --owner 0x1234...

  # Skip confirmation
  swap-exec swap 1 USDC to WETH min 0.0004 --owner 0x1234... --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&ownerAddr, "owner", "", "Address the input token is pulled from (defaults to the executor address)")
	swapCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient of the output token (defaults to the owner)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().BoolVar(&noPreview, "no-preview", false, "Skip the indicative quote preview")
}

func runSwap(cmd *cobra.Command, args []string) {
	commandStr := strings.Join(args, " ")
	swapCmdParsed, err := parser.ParseSwapCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	inputToken, err := resolveToken(cfg, swapCmdParsed.InputToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	outputToken, err := resolveToken(cfg, swapCmdParsed.OutputToken)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	inputAmount, err := types.ParseUnits(swapCmdParsed.Amount, inputToken.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	minOutput := big.NewInt(0)
	if swapCmdParsed.MinOutput != "" {
		minOutput, err = types.ParseUnits(swapCmdParsed.MinOutput, outputToken.Decimals)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	// Parse the executor key and connect to the chain
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		printError(fmt.Errorf("invalid private key: %w", err))
		os.Exit(1)
	}
	executorAddr := crypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	owner := ownerAddr
	if owner == "" {
		owner = executorAddr
	}
	recipient := recipientAddr
	if recipient == "" {
		recipient = owner
	}

	req := types.SwapRequest{
		Owner:           owner,
		InputAsset:      inputToken.Address,
		OutputAsset:     outputToken.Address,
		InputAmount:     inputAmount,
		MinOutputAmount: minOutput,
		Recipient:       recipient,
	}

	client, err := ethclient.Dial(cfg.RPCUrl)
	if err != nil {
		printError(fmt.Errorf("failed to connect to RPC endpoint: %w", err))
		os.Exit(1)
	}
	defer client.Close()

	chainCfg := asset.Config{ChainID: cfg.ChainID, GasLimit: cfg.GasLimit, GasPrice: cfg.GasPrice}
	registry := asset.NewRegistry(client, privateKey, chainCfg)

	inputERC20, err := registry.ERC20(inputToken.Address)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Catch an unfunded or unapproved swap before prompting: the custody pull
	// would only fail later and burn gas doing it.
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking balance and approval..."
		s.Start()
	}
	err = verifyFunding(context.Background(), inputERC20, owner, executorAddr, inputAmount)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		color.Yellow("Approve the executor address for the input token, then retry.")
		color.Yellow("A consumed approval must be granted again before retrying.\n")
		os.Exit(1)
	}

	// Indicative quote preview (reporting only, no value moves)
	if !noPreview && cfg.Quote.BaseURL != "" && !jsonOutput {
		previewQuote(cfg, req, swapCmdParsed, outputToken)
	}

	if !jsonOutput {
		displaySwapPlan(req, swapCmdParsed, executorAddr)
	}

	if !noConfirm && !cfg.AutoConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	swapRouter, err := router.NewUniswapV3(client, cfg.RouterAddress, privateKey, chainCfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	executor := settlement.NewExecutor(swapRouter, registry, cfg.SettlementAsset)

	if verbose {
		fmt.Printf("\nDebug: executor %s, router %s\n", executorAddr, swapRouter.Spender())
		fmt.Printf("Debug: pulling %s of %s from %s\n", inputAmount, inputToken.Address, owner)
	}

	s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Settling swap..."
		s.Start()
	}

	outcome, err := executor.ExecuteSwap(context.Background(), req)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printSettlementError(err)
		os.Exit(1)
	}

	txHash := swapRouter.LastTxHash()
	recordReceipt(req, outcome, txHash, verbose)

	if jsonOutput {
		output := map[string]interface{}{
			"owner":          req.Owner,
			"input_asset":    req.InputAsset,
			"output_asset":   req.OutputAsset,
			"input_amount":   req.InputAmount.String(),
			"min_amount_out": req.MinOutputAmount.String(),
			"amount_out":     outcome.AmountOut.String(),
			"recipient":      req.Recipient,
			"tx_hash":        txHash,
			"status":         "settled",
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	color.Green("\n✓ Swap settled!")
	fmt.Printf("  Amount Out:  %s %s\n",
		color.YellowString(types.FormatUnits(outcome.AmountOut, outputToken.Decimals)),
		swapCmdParsed.OutputToken)
	fmt.Printf("  Recipient:   %s\n", color.CyanString(req.Recipient))
	if txHash != "" {
		fmt.Printf("  Exchange Tx: %s\n", color.HiBlackString(txHash))
		fmt.Println("\nYou can inspect the settlement transaction using:")
		color.Cyan("  swap-exec status %s\n", txHash)
	}
}

// resolveToken maps a configured symbol to its address and decimals.
func resolveToken(cfg *config.Config, symbol string) (config.TokenConfig, error) {
	token, ok := cfg.Token(parser.NormalizeTokenSymbol(symbol))
	if !ok {
		return config.TokenConfig{}, fmt.Errorf("token '%s' is not configured (see: swap-exec list-tokens)", symbol)
	}
	if token.Address == "" {
		return config.TokenConfig{}, fmt.Errorf("token '%s' has no address configured", symbol)
	}
	return token, nil
}

// fundingSource exposes the token reads the preflight check needs.
type fundingSource interface {
	BalanceOf(ctx context.Context, holder string) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)
}

// verifyFunding checks the owner holds the input amount and has approved the
// executor for at least that much.
func verifyFunding(ctx context.Context, token fundingSource, owner, executorAddr string, amount *big.Int) error {
	balance, err := token.BalanceOf(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to read owner balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("owner %s holds %s of the input token but the swap needs %s", owner, balance, amount)
	}

	allowance, err := token.Allowance(ctx, owner, executorAddr)
	if err != nil {
		return fmt.Errorf("failed to read executor allowance: %w", err)
	}
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("owner %s approved %s for executor %s but the swap needs %s", owner, allowance, executorAddr, amount)
	}

	return nil
}

func previewQuote(cfg *config.Config, req types.SwapRequest, swapCmdParsed *parser.SwapCommand, outputToken config.TokenConfig) {
	quoteClient := quote.NewClient(cfg.Quote.BaseURL, cfg.Quote.APIKey)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Fetching quote..."
	s.Start()

	q, err := quoteClient.GetQuote(context.Background(), req.InputAsset, req.OutputAsset, req.InputAmount)
	s.Stop()

	if err != nil {
		color.Yellow("\nQuote preview unavailable: %v", err)
		return
	}

	buyAmount, ok := new(big.Int).SetString(q.BuyAmount, 10)
	expected := q.BuyAmount
	if ok {
		expected = types.FormatUnits(buyAmount, outputToken.Decimals)
	}

	fmt.Printf("\n  Indicative price:  %s %s per %s\n", q.Price, swapCmdParsed.OutputToken, swapCmdParsed.InputToken)
	fmt.Printf("  Expected output:   ~%s %s\n", expected, swapCmdParsed.OutputToken)
	displaySources(q)
}

func displaySwapPlan(req types.SwapRequest, swapCmdParsed *parser.SwapCommand, executorAddr string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                   SWAP SETTLEMENT")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:       %s %s (%s)\n", swapCmdParsed.Amount, color.YellowString(swapCmdParsed.InputToken), req.InputAsset)
	fmt.Printf("  To:         %s (%s)\n", color.YellowString(swapCmdParsed.OutputToken), req.OutputAsset)
	if swapCmdParsed.MinOutput != "" {
		fmt.Printf("  Minimum:    %s %s\n", swapCmdParsed.MinOutput, swapCmdParsed.OutputToken)
	} else {
		color.Yellow("  Minimum:    none (no output floor!)")
	}
	fmt.Printf("  Owner:      %s\n", color.CyanString(req.Owner))
	fmt.Printf("  Recipient:  %s\n", color.CyanString(req.Recipient))
	fmt.Printf("  Executor:   %s\n", executorAddr)

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func printSettlementError(err error) {
	printError(err)

	switch {
	case errors.Is(err, settlement.ErrCustodyTransferFailed):
		color.Yellow("Check the owner's balance and approval for the executor address.")
		color.Yellow("A consumed approval must be granted again before retrying.\n")
	case errors.Is(err, settlement.ErrSlippageExceeded):
		color.Yellow("The router reported less than your minimum. Retry with a lower")
		color.Yellow("minimum or wait for better liquidity.\n")
	}
}

func recordReceipt(req types.SwapRequest, outcome *types.ExchangeOutcome, txHash string, verbose bool) {
	store, err := history.NewStorage("")
	if err == nil {
		err = store.Add(types.SettlementReceipt{
			Owner:        req.Owner,
			InputAsset:   req.InputAsset,
			OutputAsset:  req.OutputAsset,
			InputAmount:  req.InputAmount.String(),
			MinAmountOut: req.MinOutputAmount.String(),
			AmountOut:    outcome.AmountOut.String(),
			Recipient:    req.Recipient,
			TxHash:       txHash,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		})
	}
	if err != nil && verbose {
		fmt.Printf("Debug: failed to record settlement receipt: %v\n", err)
	}
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
