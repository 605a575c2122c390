/**
 * @description
 * This package provides a client for the internal reference-price API. It serves
 * two lookups: the NGN price of a token on a given network (the pricing path for
 * non-base networks) and the current USDC→NGN exchange rate used to convert
 * on-chain USDC quotes into local fiat.
 */
package priceapiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client is a client for the internal price API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new price API client.
func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// TokenPriceResponse is the price API's quote for one token.
type TokenPriceResponse struct {
	Symbol   string          `json:"symbol"`
	Network  string          `json:"network"`
	PriceNGN decimal.Decimal `json:"price_ngn"`
	AsOf     time.Time       `json:"as_of"`
}

// RateResponse is the price API's USDC→NGN exchange rate.
type RateResponse struct {
	Rate decimal.Decimal `json:"rate"`
	AsOf time.Time       `json:"as_of"`
}

// ErrorResponse represents an error from the price API.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("price api error (status %d): %s - %s", e.StatusCode, e.Code, e.Message)
}

// GetTokenPrice fetches the NGN unit price of a token on a network.
func (c *Client) GetTokenPrice(ctx context.Context, symbol, network string) (decimal.Decimal, error) {
	var out TokenPriceResponse
	path := fmt.Sprintf("/api/v1/prices/%s/%s", strings.ToLower(network), strings.ToUpper(symbol))
	if err := c.get(ctx, path, &out); err != nil {
		return decimal.Zero, err
	}
	if out.PriceNGN.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("price api returned non-positive price for %s on %s", symbol, network)
	}
	return out.PriceNGN, nil
}

// GetUSDCExchangeRate fetches the current USDC→NGN rate.
func (c *Client) GetUSDCExchangeRate(ctx context.Context) (decimal.Decimal, error) {
	var out RateResponse
	if err := c.get(ctx, "/api/v1/rates/usdc-ngn", &out); err != nil {
		return decimal.Zero, err
	}
	if out.Rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("price api returned non-positive usdc rate")
	}
	return out.Rate, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("price api base url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("X-Internal-API-Key", strings.TrimSpace(c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to price api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read price api response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errResp := &ErrorResponse{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, errResp); err != nil {
			return fmt.Errorf("price api returned status %d", resp.StatusCode)
		}
		return errResp
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode price api response: %w", err)
	}
	return nil
}
