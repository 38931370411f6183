// Package quote is the read-only reporting collaborator: it fetches price
// quotes and liquidity-source breakdowns from an aggregator API. It never
// moves value and is invoked before or independently of settlement, never
// interleaved with it.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client is an HTTP client for a 0x-style aggregator quote API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Quote is the aggregator's indicative result for a sell order. Amounts are
// strings in base units, as returned by the API.
type Quote struct {
	Price        string            `json:"price"`
	SellAmount   string            `json:"sellAmount"`
	BuyAmount    string            `json:"buyAmount"`
	EstimatedGas string            `json:"estimatedGas"`
	Sources      []LiquiditySource `json:"sources"`
}

// LiquiditySource is one venue contributing to a quote, with its share of
// the fill as a decimal fraction ("0.75").
type LiquiditySource struct {
	Name       string `json:"name"`
	Proportion string `json:"proportion"`
}

// NewClient creates a quote client for the API at baseURL. The API key may
// be empty for keyless endpoints.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// GetQuote fetches an indicative quote for selling sellAmount of sellToken
// into buyToken.
func (c *Client) GetQuote(ctx context.Context, sellToken, buyToken string, sellAmount *big.Int) (*Quote, error) {
	if sellAmount == nil || sellAmount.Sign() <= 0 {
		return nil, fmt.Errorf("sell amount must be positive")
	}

	endpoint, err := url.Parse(c.baseURL + "/swap/v1/quote")
	if err != nil {
		return nil, fmt.Errorf("invalid quote API URL: %w", err)
	}

	query := endpoint.Query()
	query.Set("sellToken", sellToken)
	query.Set("buyToken", buyToken)
	query.Set("sellAmount", sellAmount.String())
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("0x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote from API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	return &quote, nil
}

// ActiveSources returns the liquidity sources with a non-zero share of the
// fill.
func (q *Quote) ActiveSources() []LiquiditySource {
	active := make([]LiquiditySource, 0, len(q.Sources))
	for _, source := range q.Sources {
		if source.Proportion != "" && source.Proportion != "0" {
			active = append(active, source)
		}
	}
	return active
}

// apiError extracts the actual error message from a non-2xx response body.
func apiError(resp *http.Response) error {
	bodyBytes, readErr := io.ReadAll(resp.Body)
	if readErr != nil || len(bodyBytes) == 0 {
		return fmt.Errorf("API returned status code %d", resp.StatusCode)
	}

	var errorResp map[string]interface{}
	if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
		if reason, ok := errorResp["reason"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, reason)
		}
		if message, ok := errorResp["message"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, message)
		}
		if errors, ok := errorResp["validationErrors"]; ok {
			return fmt.Errorf("API error (status %d): %v", resp.StatusCode, errors)
		}
	}

	return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
}
