package types

import "math/big"

// SwapRequest describes a single settlement: pull InputAmount of InputAsset
// from Owner, exchange it through the router, and deliver at least
// MinOutputAmount of OutputAsset to Recipient. Asset references are opaque
// identifiers (hex contract addresses on EVM chains). Amounts are in the
// token's base units.
type SwapRequest struct {
	Owner           string
	InputAsset      string
	OutputAsset     string
	InputAmount     *big.Int
	MinOutputAmount *big.Int
	Recipient       string
}

// ExchangeOutcome is the router-reported result of a settlement.
type ExchangeOutcome struct {
	AmountOut *big.Int
}

// SettlementReceipt holds the externally visible record of a completed
// settlement, kept for display and history.
type SettlementReceipt struct {
	Owner        string `json:"owner"`
	InputAsset   string `json:"input_asset"`
	OutputAsset  string `json:"output_asset"`
	InputAmount  string `json:"input_amount"`
	MinAmountOut string `json:"min_amount_out"`
	AmountOut    string `json:"amount_out"`
	Recipient    string `json:"recipient"`
	TxHash       string `json:"tx_hash,omitempty"`
	Timestamp    string `json:"timestamp"`
}
