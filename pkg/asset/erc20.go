package asset

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
)

// ERC20 token functions used by the settlement flow
const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"_from","type":"address"},{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// receiptPollInterval is how often a submitted transaction is checked for
// inclusion.
const receiptPollInterval = 2 * time.Second

// Config holds the chain parameters shared by all token adapters.
type Config struct {
	ChainID  int64
	GasLimit *uint64
	GasPrice *int64
}

// ERC20 adapts one ERC20 token contract to the settlement value-transfer
// surface. Transactions are signed with the executor's key; PullFrom moves
// tokens from an owner to the executor, Authorize grants a spender rights
// over the executor's tokens.
type ERC20 struct {
	client     *ethclient.Client
	token      common.Address
	privateKey *ecdsa.PrivateKey
	config     Config
	abi        abi.ABI
}

// NewERC20 creates an adapter for the token contract at tokenAddr.
func NewERC20(client *ethclient.Client, tokenAddr string, privateKey *ecdsa.PrivateKey, cfg Config) (*ERC20, error) {
	if !common.IsHexAddress(tokenAddr) {
		return nil, fmt.Errorf("invalid token contract address: %s", tokenAddr)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &ERC20{
		client:     client,
		token:      common.HexToAddress(tokenAddr),
		privateKey: privateKey,
		config:     cfg,
		abi:        parsedABI,
	}, nil
}

// ExecutorAddress returns the address the adapter signs with, i.e. the
// custody destination of PullFrom and the grantor of Authorize.
func (e *ERC20) ExecutorAddress() common.Address {
	return crypto.PubkeyToAddress(e.privateKey.PublicKey)
}

// PullFrom moves amount of the token from owner to the executor. The owner
// must have approved the executor beforehand; the transfer consumes that
// approval. The transaction must be mined successfully before this returns.
func (e *ERC20) PullFrom(ctx context.Context, owner string, amount *big.Int) error {
	if !common.IsHexAddress(owner) {
		return fmt.Errorf("invalid owner address: %s", owner)
	}

	data, err := e.abi.Pack("transferFrom", common.HexToAddress(owner), e.ExecutorAddress(), amount)
	if err != nil {
		return fmt.Errorf("failed to pack transferFrom data: %w", err)
	}

	return e.sendAndConfirm(ctx, "transferFrom", data)
}

// Authorize grants spender the right to move up to amount of the token from
// the executor.
func (e *ERC20) Authorize(ctx context.Context, spender string, amount *big.Int) error {
	if !common.IsHexAddress(spender) {
		return fmt.Errorf("invalid spender address: %s", spender)
	}

	data, err := e.abi.Pack("approve", common.HexToAddress(spender), amount)
	if err != nil {
		return fmt.Errorf("failed to pack approve data: %w", err)
	}

	return e.sendAndConfirm(ctx, "approve", data)
}

// BalanceOf reads the token balance of an address.
func (e *ERC20) BalanceOf(ctx context.Context, holder string) (*big.Int, error) {
	if !common.IsHexAddress(holder) {
		return nil, fmt.Errorf("invalid holder address: %s", holder)
	}
	return e.readUint(ctx, "balanceOf", common.HexToAddress(holder))
}

// Allowance reads the remaining authorization from owner to spender.
func (e *ERC20) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	if !common.IsHexAddress(owner) || !common.IsHexAddress(spender) {
		return nil, fmt.Errorf("invalid address in allowance query")
	}
	return e.readUint(ctx, "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
}

func (e *ERC20) readUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	data, err := e.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s data: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &e.token,
		Data: data,
	}
	result, err := e.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	value := new(big.Int)
	value.SetBytes(result)
	return value, nil
}

// sendAndConfirm signs a transaction to the token contract, submits it, and
// waits until it is mined with a successful status. The call is simulated
// first: some tokens report failure by returning false instead of
// reverting, so the receipt status alone cannot be trusted.
func (e *ERC20) sendAndConfirm(ctx context.Context, method string, data []byte) error {
	from := e.ExecutorAddress()

	if err := e.simulate(ctx, from, method, data); err != nil {
		return err
	}

	nonce, err := e.client.PendingNonceAt(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := e.gasPrice(ctx)
	if err != nil {
		return err
	}

	gasLimit := uint64(100000) // typical ERC20 state change
	if e.config.GasLimit != nil {
		gasLimit = *e.config.GasLimit
	} else {
		msg := ethereum.CallMsg{
			From: from,
			To:   &e.token,
			Data: data,
		}
		estimatedGas, err := e.client.EstimateGas(ctx, msg)
		if err == nil {
			gasLimit = estimatedGas * 120 / 100 // add 20% buffer
		}
	}

	tx := types.NewTransaction(
		nonce,
		e.token,
		big.NewInt(0),
		gasLimit,
		gasPrice,
		data,
	)

	chainID := big.NewInt(e.config.ChainID)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), e.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := waitMined(ctx, e.client, signedTx.Hash())
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", signedTx.Hash().Hex())
	}

	return nil
}

// simulate runs the packed call via eth_call and decodes its boolean result
// when the token returns one. Tokens that return no data are tolerated.
func (e *ERC20) simulate(ctx context.Context, from common.Address, method string, data []byte) error {
	msg := ethereum.CallMsg{
		From: from,
		To:   &e.token,
		Data: data,
	}
	result, err := e.client.CallContract(ctx, msg, nil)
	if err != nil {
		return fmt.Errorf("%s simulation failed: %w", method, err)
	}
	if len(result) == 0 {
		return nil
	}

	outputs, err := e.abi.Unpack(method, result)
	if err != nil || len(outputs) == 0 {
		return nil
	}
	if ok, isBool := outputs[0].(bool); isBool && !ok {
		return fmt.Errorf("%s reported failure", method)
	}

	return nil
}

func (e *ERC20) gasPrice(ctx context.Context) (*big.Int, error) {
	if e.config.GasPrice != nil {
		return big.NewInt(*e.config.GasPrice), nil
	}

	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return gasPrice, nil
}

// waitMined polls for the receipt of a submitted transaction.
func waitMined(ctx context.Context, client *ethclient.Client, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
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
