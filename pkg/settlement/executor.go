package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"swap-exec/pkg/types"
)

// Settlement failure taxonomy. Router errors outside this set are passed
// through verbatim.
var (
	ErrCustodyTransferFailed = errors.New("custody transfer failed")
	ErrAuthorizationFailed   = errors.New("router authorization failed")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
)

// PoolFee is the fixed exchange fee tier (0.3%), expressed in hundredths of
// a basis point. Fee-tier selection is not part of settlement.
const PoolFee uint32 = 3000

// Asset is the value-transfer surface of a single fungible token. PullFrom
// requires a prior authorization from owner to the executor; Authorize
// grants spender the right to move up to amount from the executor.
type Asset interface {
	PullFrom(ctx context.Context, owner string, amount *big.Int) error
	Authorize(ctx context.Context, spender string, amount *big.Int) error
}

// AssetSource resolves an asset reference to its value-transfer surface.
type AssetSource interface {
	Asset(ref string) (Asset, error)
}

// ExchangeParams is the router's exact-input single-hop exchange request.
// A nil PriceLimit means no price bound.
type ExchangeParams struct {
	InputAsset   string
	OutputAsset  string
	FeeTier      uint32
	Recipient    string
	Deadline     time.Time
	AmountIn     *big.Int
	MinAmountOut *big.Int
	PriceLimit   *big.Int
}

// Router executes a value-conserving exchange. It pulls up to AmountIn of
// the input asset from the executor and delivers the output directly to
// the recipient, returning the amount delivered.
type Router interface {
	ExchangeExactInput(ctx context.Context, params ExchangeParams) (*big.Int, error)
	Spender() string
}

// Executor settles swaps: it takes custody of the caller's input token,
// authorizes the router for exactly the amount needed, delegates the
// exchange, and verifies the reported output against the caller's floor.
// It holds no state across calls beyond its write-once configuration.
type Executor struct {
	router Router
	assets AssetSource

	// settlementAsset is a configured secondary asset reference. It is not
	// consulted by the settlement path.
	settlementAsset string
}

// NewExecutor creates an executor bound to a router and an asset source.
func NewExecutor(router Router, assets AssetSource, settlementAsset string) *Executor {
	return &Executor{
		router:          router,
		assets:          assets,
		settlementAsset: settlementAsset,
	}
}

// SettlementAsset returns the configured secondary asset reference.
func (e *Executor) SettlementAsset() string {
	return e.settlementAsset
}

// ExecuteSwap performs one settlement. The owner must have pre-authorized
// the executor for at least req.InputAmount of the input asset; that
// authorization is consumed, so a retry needs a fresh one. Every failure
// aborts the whole operation; nothing is retried here.
func (e *Executor) ExecuteSwap(ctx context.Context, req types.SwapRequest) (*types.ExchangeOutcome, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	input, err := e.assets.Asset(req.InputAsset)
	if err != nil {
		return nil, fmt.Errorf("input asset %s: %w", req.InputAsset, err)
	}

	// Step 1: take custody of the input. Must fully complete before anything
	// else; there are no partial pulls.
	if err := input.PullFrom(ctx, req.Owner, req.InputAmount); err != nil {
		return nil, fmt.Errorf("%w: pull %s of %s from %s: %v",
			ErrCustodyTransferFailed, req.InputAmount, req.InputAsset, req.Owner, err)
	}

	// Step 2: grant the router spend rights scoped to exactly this amount.
	// An unbounded standing grant would leave residual authorization behind.
	if err := input.Authorize(ctx, e.router.Spender(), req.InputAmount); err != nil {
		return nil, fmt.Errorf("%w: authorize %s of %s for %s: %v",
			ErrAuthorizationFailed, req.InputAmount, req.InputAsset, e.router.Spender(), err)
	}

	// Step 3: delegate the exchange. The deadline is the current time, so
	// the router gets no slack for delayed execution. The output goes
	// straight to the recipient; the executor never custodies it.
	amountOut, err := e.router.ExchangeExactInput(ctx, ExchangeParams{
		InputAsset:   req.InputAsset,
		OutputAsset:  req.OutputAsset,
		FeeTier:      PoolFee,
		Recipient:    req.Recipient,
		Deadline:     time.Now(),
		AmountIn:     req.InputAmount,
		MinAmountOut: req.MinOutputAmount,
		PriceLimit:   nil,
	})
	if err != nil {
		return nil, err
	}

	// Step 4: the router enforces its own minimum internally, so this guards
	// against a router that misreports its outcome.
	if amountOut == nil || amountOut.Cmp(req.MinOutputAmount) < 0 {
		return nil, fmt.Errorf("%w: router reported %s, floor is %s",
			ErrSlippageExceeded, amountOut, req.MinOutputAmount)
	}

	return &types.ExchangeOutcome{AmountOut: amountOut}, nil
}

func validateRequest(req types.SwapRequest) error {
	if req.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if req.InputAsset == "" {
		return fmt.Errorf("input asset is required")
	}
	if req.OutputAsset == "" {
		return fmt.Errorf("output asset is required")
	}
	if req.Recipient == "" {
		return fmt.Errorf("recipient is required")
	}
	if req.InputAmount == nil || req.InputAmount.Sign() <= 0 {
		return fmt.Errorf("input amount must be positive")
	}
	if req.MinOutputAmount == nil || req.MinOutputAmount.Sign() < 0 {
		return fmt.Errorf("minimum output amount must not be negative")
	}
	return nil
}
