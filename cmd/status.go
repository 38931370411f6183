package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swap-exec/config"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a settlement transaction",
	Long: `Check the on-chain status of a settlement transaction by its hash.

Examples:
  swap-exec status 0x1234...abcd
  swap-exec status 0x1234...abcd --watch
  swap-exec status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

// txInfo is the displayable state of a settlement transaction.
type txInfo struct {
	Hash        string `json:"hash"`
	Nonce       uint64 `json:"nonce"`
	To          string `json:"to"`
	GasPrice    string `json:"gas_price"`
	GasLimit    uint64 `json:"gas_limit"`
	Pending     bool   `json:"pending"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	GasUsed     uint64 `json:"gas_used,omitempty"`
	Status      string `json:"status"`
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	client, err := ethclient.Dial(cfg.RPCUrl)
	if err != nil {
		printError(fmt.Errorf("failed to connect to RPC endpoint: %w", err))
		os.Exit(1)
	}
	defer client.Close()

	if watchStatus {
		watchTxStatus(client, txHash, jsonOutput)
	} else {
		checkTxStatus(client, txHash, jsonOutput)
	}
}

func checkTxStatus(client *ethclient.Client, txHash string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	info, err := fetchTxInfo(client, txHash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTxStatus(info)
	}
}

func watchTxStatus(client *ethclient.Client, txHash string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(txHash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	checkAndDisplayTxStatus(client, txHash)

	for range ticker.C {
		info := checkAndDisplayTxStatus(client, txHash)
		if info != nil && !info.Pending {
			return
		}
	}
}

func checkAndDisplayTxStatus(client *ethclient.Client, txHash string) *txInfo {
	info, err := fetchTxInfo(client, txHash)
	if err != nil {
		color.Red("Error: %v", err)
		return nil
	}

	displayTxStatus(info)
	return info
}

// fetchTxInfo retrieves a transaction and, once mined, its receipt.
func fetchTxInfo(client *ethclient.Client, txHash string) (*txInfo, error) {
	ctx := context.Background()
	hash := common.HexToHash(txHash)

	tx, isPending, err := client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	info := &txInfo{
		Hash:     tx.Hash().Hex(),
		Nonce:    tx.Nonce(),
		GasPrice: tx.GasPrice().String(),
		GasLimit: tx.Gas(),
		Pending:  isPending,
		Status:   "PENDING",
	}
	if tx.To() != nil {
		info.To = tx.To().Hex()
	}

	if !isPending {
		receipt, err := client.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
		}
		info.BlockNumber = receipt.BlockNumber.Uint64()
		info.GasUsed = receipt.GasUsed
		if receipt.Status == ethtypes.ReceiptStatusSuccessful {
			info.Status = "SUCCESS"
		} else {
			info.Status = "REVERTED"
		}
	}

	return info, nil
}

func displayTxStatus(info *txInfo) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     SETTLEMENT STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Transaction:  %s\n", color.CyanString(info.Hash))
	fmt.Printf("  Status:       %s\n", coloredTxStatus(info.Status))
	fmt.Printf("  To:           %s\n", info.To)
	fmt.Printf("  Nonce:        %d\n", info.Nonce)
	fmt.Printf("  Gas Price:    %s\n", info.GasPrice)

	if !info.Pending {
		fmt.Printf("  Block:        %d\n", info.BlockNumber)
		fmt.Printf("  Gas Used:     %d / %d\n", info.GasUsed, info.GasLimit)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredTxStatus(status string) string {
	switch status {
	case "SUCCESS":
		return color.GreenString(status)
	case "PENDING":
		return color.YellowString(status)
	case "REVERTED":
		return color.RedString(status)
	default:
		return status
	}
}
