package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwapCommand(t *testing.T) {
	cases := []struct {
		name    string
		command string
		want    SwapCommand
	}{
		{
			name:    "basic",
			command: "1 USDC to WETH",
			want:    SwapCommand{Amount: "1", InputToken: "USDC", OutputToken: "WETH"},
		},
		{
			name:    "with swap prefix",
			command: "swap 1.5 WETH to USDC",
			want:    SwapCommand{Amount: "1.5", InputToken: "WETH", OutputToken: "USDC"},
		},
		{
			name:    "with minimum output",
			command: "swap 1 USDC to WETH min 0.0004",
			want:    SwapCommand{Amount: "1", InputToken: "USDC", OutputToken: "WETH", MinOutput: "0.0004"},
		},
		{
			name:    "lowercase tokens",
			command: "100.25 usdc to weth",
			want:    SwapCommand{Amount: "100.25", InputToken: "USDC", OutputToken: "WETH"},
		},
		{
			name:    "same token both sides",
			command: "1 USDC to USDC",
			want:    SwapCommand{Amount: "1", InputToken: "USDC", OutputToken: "USDC"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSwapCommand(tc.command)
			require.NoError(t, err)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestParseSwapCommandRejects(t *testing.T) {
	cases := []string{
		"",
		"USDC to WETH",
		"1 USDC",
		"1 USDC WETH",
		"swap one USDC to WETH",
		"1 USDC to WETH min",
	}

	for _, command := range cases {
		t.Run(command, func(t *testing.T) {
			_, err := ParseSwapCommand(command)
			require.Error(t, err)
		})
	}
}

func TestValidateSwapCommand(t *testing.T) {
	require.NoError(t, ValidateSwapCommand(&SwapCommand{Amount: "1", InputToken: "USDC", OutputToken: "WETH"}))
	require.Error(t, ValidateSwapCommand(&SwapCommand{InputToken: "USDC", OutputToken: "WETH"}))
	require.Error(t, ValidateSwapCommand(&SwapCommand{Amount: "1", OutputToken: "WETH"}))
	require.Error(t, ValidateSwapCommand(&SwapCommand{Amount: "1", InputToken: "USDC"}))
}

func TestNormalizeTokenSymbol(t *testing.T) {
	assert.Equal(t, "USDC", NormalizeTokenSymbol(" usdc "))
	assert.Equal(t, "WETH", NormalizeTokenSymbol("WETH"))
}
