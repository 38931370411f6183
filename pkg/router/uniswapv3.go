package router

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"swap-exec/pkg/asset"
	"swap-exec/pkg/settlement"
)

// Uniswap V3 SwapRouter exactInputSingle
const swapRouterABI = `[{"inputs":[{"components":[{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"fee","type":"uint24"},{"name":"recipient","type":"address"},{"name":"deadline","type":"uint256"},{"name":"amountIn","type":"uint256"},{"name":"amountOutMinimum","type":"uint256"},{"name":"sqrtPriceLimitX96","type":"uint160"}],"name":"params","type":"tuple"}],"name":"exactInputSingle","outputs":[{"name":"amountOut","type":"uint256"}],"stateMutability":"payable","type":"function"}]`

const receiptPollInterval = 2 * time.Second

// exactInputSingleParams mirrors the router's tuple argument.
type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// UniswapV3 adapts a Uniswap V3-style swap router contract to the
// settlement exchange surface. The router pulls the input from the executor
// using the authorization granted just before the call and delivers the
// output directly to the recipient.
type UniswapV3 struct {
	client     *ethclient.Client
	address    common.Address
	privateKey *ecdsa.PrivateKey
	config     asset.Config
	abi        abi.ABI

	lastTxHash string
}

// NewUniswapV3 creates an adapter for the router contract at routerAddr.
func NewUniswapV3(client *ethclient.Client, routerAddr string, privateKey *ecdsa.PrivateKey, cfg asset.Config) (*UniswapV3, error) {
	if !common.IsHexAddress(routerAddr) {
		return nil, fmt.Errorf("invalid router address: %s", routerAddr)
	}

	parsedABI, err := abi.JSON(strings.NewReader(swapRouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	return &UniswapV3{
		client:     client,
		address:    common.HexToAddress(routerAddr),
		privateKey: privateKey,
		config:     cfg,
		abi:        parsedABI,
	}, nil
}

// Spender returns the router's address, the target of the per-call
// authorization grant.
func (r *UniswapV3) Spender() string {
	return r.address.Hex()
}

// LastTxHash returns the hash of the most recently submitted exchange
// transaction, for display and receipts.
func (r *UniswapV3) LastTxHash() string {
	return r.lastTxHash
}

// ExchangeExactInput executes an exact-input single-hop swap. The reported
// amountOut comes from simulating the call before submission; the
// transaction is then sent and must be mined successfully.
func (r *UniswapV3) ExchangeExactInput(ctx context.Context, params settlement.ExchangeParams) (*big.Int, error) {
	if !common.IsHexAddress(params.InputAsset) {
		return nil, fmt.Errorf("invalid input asset address: %s", params.InputAsset)
	}
	if !common.IsHexAddress(params.OutputAsset) {
		return nil, fmt.Errorf("invalid output asset address: %s", params.OutputAsset)
	}
	if !common.IsHexAddress(params.Recipient) {
		return nil, fmt.Errorf("invalid recipient address: %s", params.Recipient)
	}

	priceLimit := params.PriceLimit
	if priceLimit == nil {
		priceLimit = big.NewInt(0)
	}

	data, err := r.abi.Pack("exactInputSingle", exactInputSingleParams{
		TokenIn:           common.HexToAddress(params.InputAsset),
		TokenOut:          common.HexToAddress(params.OutputAsset),
		Fee:               big.NewInt(int64(params.FeeTier)),
		Recipient:         common.HexToAddress(params.Recipient),
		Deadline:          big.NewInt(params.Deadline.Unix()),
		AmountIn:          params.AmountIn,
		AmountOutMinimum:  params.MinAmountOut,
		SqrtPriceLimitX96: priceLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pack exactInputSingle data: %w", err)
	}

	from := crypto.PubkeyToAddress(r.privateKey.PublicKey)

	// Simulate first to obtain the router-reported output.
	msg := ethereum.CallMsg{
		From: from,
		To:   &r.address,
		Data: data,
	}
	result, err := r.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("exchange simulation failed: %w", err)
	}

	outputs, err := r.abi.Unpack("exactInputSingle", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exchange result: %w", err)
	}
	amountOut, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected exchange result type %T", outputs[0])
	}

	if err := r.sendAndConfirm(ctx, from, data); err != nil {
		return nil, err
	}

	return amountOut, nil
}

func (r *UniswapV3) sendAndConfirm(ctx context.Context, from common.Address, data []byte) error {
	nonce, err := r.client.PendingNonceAt(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := r.gasPrice(ctx)
	if err != nil {
		return err
	}

	gasLimit := uint64(300000) // typical single-hop swap
	if r.config.GasLimit != nil {
		gasLimit = *r.config.GasLimit
	} else {
		msg := ethereum.CallMsg{
			From: from,
			To:   &r.address,
			Data: data,
		}
		estimatedGas, err := r.client.EstimateGas(ctx, msg)
		if err == nil {
			gasLimit = estimatedGas * 120 / 100 // add 20% buffer
		}
	}

	tx := types.NewTransaction(
		nonce,
		r.address,
		big.NewInt(0),
		gasLimit,
		gasPrice,
		data,
	)

	chainID := big.NewInt(r.config.ChainID)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), r.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := r.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}
	r.lastTxHash = signedTx.Hash().Hex()

	receipt, err := r.waitMined(ctx, signedTx.Hash())
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("exchange transaction %s reverted", signedTx.Hash().Hex())
	}

	return nil
}

func (r *UniswapV3) gasPrice(ctx context.Context) (*big.Int, error) {
	if r.config.GasPrice != nil {
		return big.NewInt(*r.config.GasPrice), nil
	}

	gasPrice, err := r.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return gasPrice, nil
}

func (r *UniswapV3) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := r.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for transaction %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
