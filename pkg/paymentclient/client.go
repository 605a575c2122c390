/**
 * @description
 * This package provides a client for the hosted fiat payment-link provider. It
 * encapsulates the single call this service makes: creating a checkout keyed by
 * the merchant-facing order reference, which returns a hosted payment URL the
 * customer completes the NGN payment on.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http: Standard Go libraries.
 * - github.com/shopspring/decimal: NGN amounts on the checkout payload.
 */
package paymentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client is a client for the payment-link provider API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new payment-link provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CheckoutRequest is the payload for creating a hosted checkout.
type CheckoutRequest struct {
	Reference     string          `json:"reference"` // merchant-facing order reference
	Amount        decimal.Decimal `json:"amount"`    // NGN
	Currency      string          `json:"currency"`
	CustomerEmail string          `json:"customer_email"`
	CustomerName  string          `json:"customer_name"`
	Narration     string          `json:"narration,omitempty"`
}

// CheckoutResponse is the provider's response to a checkout creation.
type CheckoutResponse struct {
	Data struct {
		Reference   string `json:"reference"`
		CheckoutURL string `json:"checkout_url"`
		ExpiresAt   string `json:"expires_at,omitempty"`
	} `json:"data"`
}

// ErrorResponse represents an error from the payment provider API.
type ErrorResponse struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Status string `json:"status"`
	} `json:"errors"`
}

func (e *ErrorResponse) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("payment api error: %s - %s", e.Errors[0].Title, e.Errors[0].Detail)
	}
	return "unknown payment api error"
}

// CreateCheckout asks the provider to issue a hosted payment link.
func (c *Client) CreateCheckout(ctx context.Context, reqPayload CheckoutRequest) (*CheckoutResponse, error) {
	if reqPayload.Currency == "" {
		reqPayload.Currency = "NGN"
	}

	body, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/v1/checkouts", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute checkout request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkout response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=payment_client op=create_checkout status=%d msg=\"non-2xx response (unparsable error body)\"", resp.StatusCode)
			return nil, fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=payment_client op=create_checkout reference=%s status=%d title=%q", reqPayload.Reference, resp.StatusCode, firstErrorTitle(errResp))
		return nil, &errResp
	}

	var successResp CheckoutResponse
	if err := json.Unmarshal(bodyBytes, &successResp); err != nil {
		return nil, fmt.Errorf("failed to decode checkout response: %w", err)
	}
	if strings.TrimSpace(successResp.Data.CheckoutURL) == "" {
		return nil, fmt.Errorf("payment provider returned empty checkout url")
	}

	return &successResp, nil
}

func firstErrorTitle(resp ErrorResponse) string {
	if len(resp.Errors) == 0 {
		return ""
	}
	return resp.Errors[0].Title
}
