package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// SwapCommand is a parsed swap instruction. Amounts are decimal strings in
// token units; conversion to base units happens once decimals are known.
type SwapCommand struct {
	Amount      string
	InputToken  string
	OutputToken string
	MinOutput   string
}

// Pattern: <amount> <input_token> TO <output_token> [MIN <amount>]
// Matches: "1 USDC TO WETH", "1.5 WETH TO USDC MIN 1400.25"
var swapPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)(?:\s+MIN\s+(\d+\.?\d*))?$`)

// ParseSwapCommand parses a swap command string.
// Examples:
//   - "swap 1 USDC to WETH"
//   - "1.5 WETH to USDC min 1400"
func ParseSwapCommand(command string) (*SwapCommand, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "SWAP ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token> [min <amount>]' (e.g., 'swap 1 USDC to WETH min 0.0004')")
	}

	return &SwapCommand{
		Amount:      matches[1],
		InputToken:  matches[2],
		OutputToken: matches[3],
		MinOutput:   matches[4],
	}, nil
}

// ValidateSwapCommand validates that a parsed command has all required fields.
func ValidateSwapCommand(cmd *SwapCommand) error {
	if cmd.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if cmd.InputToken == "" {
		return fmt.Errorf("input token is required")
	}
	if cmd.OutputToken == "" {
		return fmt.Errorf("output token is required")
	}
	return nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format.
func NormalizeTokenSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}
