package cmd

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFunding struct {
	balance      *big.Int
	allowance    *big.Int
	balanceErr   error
	allowanceErr error

	allowanceSpender string
}

func (f *fakeFunding) BalanceOf(_ context.Context, _ string) (*big.Int, error) {
	return f.balance, f.balanceErr
}

func (f *fakeFunding) Allowance(_ context.Context, _, spender string) (*big.Int, error) {
	f.allowanceSpender = spender
	return f.allowance, f.allowanceErr
}

const fundingExecutor = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestVerifyFundingSufficient(t *testing.T) {
	token := &fakeFunding{
		balance:   big.NewInt(1_000_000),
		allowance: big.NewInt(1_000_000),
	}

	err := verifyFunding(context.Background(), token, "0xowner", fundingExecutor, big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, fundingExecutor, token.allowanceSpender)
}

func TestVerifyFundingShortAllowance(t *testing.T) {
	token := &fakeFunding{
		balance:   big.NewInt(2_000_000),
		allowance: big.NewInt(500_000),
	}

	err := verifyFunding(context.Background(), token, "0xowner", fundingExecutor, big.NewInt(1_000_000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approved 500000")
	assert.Contains(t, err.Error(), "needs 1000000")
	assert.Contains(t, err.Error(), fundingExecutor)
}

func TestVerifyFundingShortBalance(t *testing.T) {
	token := &fakeFunding{
		balance:   big.NewInt(400_000),
		allowance: big.NewInt(5_000_000),
	}

	err := verifyFunding(context.Background(), token, "0xowner", fundingExecutor, big.NewInt(1_000_000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "holds 400000")
}

func TestVerifyFundingReadErrors(t *testing.T) {
	readErr := errors.New("rpc unavailable")

	token := &fakeFunding{balanceErr: readErr}
	err := verifyFunding(context.Background(), token, "0xowner", fundingExecutor, big.NewInt(1))
	require.ErrorIs(t, err, readErr)
	assert.Contains(t, err.Error(), "owner balance")

	token = &fakeFunding{balance: big.NewInt(10), allowanceErr: readErr}
	err = verifyFunding(context.Background(), token, "0xowner", fundingExecutor, big.NewInt(1))
	require.ErrorIs(t, err, readErr)
	assert.Contains(t, err.Error(), "allowance")
}
