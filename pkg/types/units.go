package types

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseUnits converts a decimal amount string to base units for a token with
// the given number of decimals (e.g. "1.5" at 6 decimals -> 1500000). The
// conversion is exact: amounts with more fractional digits than the token
// carries are rejected, never truncated.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimals: %d", decimals)
	}

	whole, frac, _ := strings.Cut(strings.TrimSpace(amount), ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}

	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	result, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}

	return result, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatUnits renders a base-unit amount as a decimal string, trimming
// trailing zeros from the fractional part.
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	sign := ""
	if amount.Sign() < 0 {
		sign = "-"
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(amount), scale, new(big.Int))

	fracStr := frac.String()
	if pad := decimals - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		return sign + whole.String()
	}

	return fmt.Sprintf("%s%s.%s", sign, whole.String(), fracStr)
}
