package types

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	got, err := ParseUnits("1", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), got)

	got, err = ParseUnits("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_500_000), got)

	got, err = ParseUnits("0.0004", 18)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400_000_000_000_000), got)

	got, err = ParseUnits("0", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), got)

	got, err = ParseUnits(".5", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500_000), got)
}

func TestParseUnitsExactAtHighPrecision(t *testing.T) {
	// Full 18-decimal precision must survive the conversion digit for digit.
	got, err := ParseUnits("123456789.123456789012345678", 18)
	require.NoError(t, err)

	want, ok := new(big.Int).SetString("123456789123456789012345678", 10)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestParseUnitsRejects(t *testing.T) {
	cases := []struct {
		amount   string
		decimals int
	}{
		{"abc", 6},
		{"1", -1},
		{"", 6},
		{".", 6},
		{"1.2.3", 6},
		{"-1", 6},
		{"1,5", 6},
		{"1.2345678", 6}, // more fractional digits than the token carries
	}

	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			_, err := ParseUnits(tc.amount, tc.decimals)
			require.Error(t, err)
		})
	}
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0.98", FormatUnits(big.NewInt(980_000), 6))
	assert.Equal(t, "1", FormatUnits(big.NewInt(1_000_000), 6))
	assert.Equal(t, "1.000001", FormatUnits(big.NewInt(1_000_001), 6))
	assert.Equal(t, "0.0004", FormatUnits(big.NewInt(400_000_000_000_000), 18))
	assert.Equal(t, "42", FormatUnits(big.NewInt(42), 0))
	assert.Equal(t, "0", FormatUnits(nil, 6))
}

func TestFormatUnitsNegative(t *testing.T) {
	assert.Equal(t, "-0.5", FormatUnits(big.NewInt(-500_000), 6))
	assert.Equal(t, "-1.5", FormatUnits(big.NewInt(-1_500_000), 6))
	assert.Equal(t, "-2", FormatUnits(big.NewInt(-2_000_000), 6))
}
