package quote

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swap/v1/quote", r.URL.Path)
		assert.Equal(t, "0xUSDC", r.URL.Query().Get("sellToken"))
		assert.Equal(t, "0xWETH", r.URL.Query().Get("buyToken"))
		assert.Equal(t, "1000000", r.URL.Query().Get("sellAmount"))
		assert.Equal(t, "secret", r.Header.Get("0x-api-key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"price": "0.98",
			"sellAmount": "1000000",
			"buyAmount": "980000",
			"estimatedGas": "210000",
			"sources": [
				{"name": "Uniswap_V3", "proportion": "0.75"},
				{"name": "SushiSwap", "proportion": "0.25"},
				{"name": "Curve", "proportion": "0"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")

	q, err := client.GetQuote(context.Background(), "0xUSDC", "0xWETH", big.NewInt(1_000_000))
	require.NoError(t, err)

	assert.Equal(t, "980000", q.BuyAmount)
	assert.Equal(t, "0.98", q.Price)

	active := q.ActiveSources()
	require.Len(t, active, 2)
	assert.Equal(t, "Uniswap_V3", active[0].Name)
	assert.Equal(t, "0.75", active[0].Proportion)
}

func TestGetQuoteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": 100, "reason": "INSUFFICIENT_ASSET_LIQUIDITY"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")

	_, err := client.GetQuote(context.Background(), "0xUSDC", "0xWETH", big.NewInt(1_000_000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSUFFICIENT_ASSET_LIQUIDITY")
	assert.Contains(t, err.Error(), "400")
}

func TestGetQuoteRejectsNonPositiveAmount(t *testing.T) {
	client := NewClient("http://localhost:1", "")

	_, err := client.GetQuote(context.Background(), "0xUSDC", "0xWETH", big.NewInt(0))
	require.Error(t, err)

	_, err = client.GetQuote(context.Background(), "0xUSDC", "0xWETH", nil)
	require.Error(t, err)
}
