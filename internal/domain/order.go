/**
 * @description
 * This file defines the core domain models for the onramp-service. The central
 * entity is the BusinessOnrampOrder: a merchant-initiated purchase of a crypto
 * token paid for in NGN, fulfilled asynchronously by the liquidity server.
 *
 * @notes
 * - Monetary values (NGN amounts, rates, token quantities) use shopspring/decimal
 *   to keep fee arithmetic exact; `NetAmount` is always derived by subtraction so
 *   FeeAmount + NetAmount == Amount holds for every persisted order.
 * - Order status is monotonic: INITIATED -> PROCESSING -> {COMPLETED, FAILED}.
 *   Terminal states are final; late or duplicate settlement webhooks for an order
 *   already in a terminal state are acknowledged without mutation.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a BusinessOnrampOrder.
type OrderStatus string

const (
	OrderStatusInitiated  OrderStatus = "INITIATED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusFailed     OrderStatus = "FAILED"
)

// Terminal reports whether the status admits no further transition.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed
}

// BusinessOnrampOrder is the central ledger record for a fiat-to-token purchase.
// It maps directly to the `onramp_orders` table.
type BusinessOnrampOrder struct {
	ID         uuid.UUID `json:"id"`
	Reference  string    `json:"business_order_reference"` // merchant-facing identifier
	BusinessID uuid.UUID `json:"business_id"`

	CustomerEmail  string `json:"customer_email"`
	CustomerName   string `json:"customer_name"`
	CustomerWallet string `json:"customer_wallet"`

	Amount               decimal.Decimal  `json:"amount"` // NGN
	TargetToken          string           `json:"target_token"`
	TargetNetwork        Network          `json:"target_network"`
	TokenContractAddress string           `json:"token_contract_address"`
	ExchangeRate         decimal.Decimal  `json:"exchange_rate"` // NGN per token unit
	EstimatedTokenAmount decimal.Decimal  `json:"estimated_token_amount"`
	FeePercentage        decimal.Decimal  `json:"fee_percentage"`
	FeeAmount            decimal.Decimal  `json:"fee_amount"`
	NetAmount            decimal.Decimal  `json:"net_amount"`
	ActualTokenAmount    *decimal.Decimal `json:"actual_token_amount,omitempty"` // set on completion

	Status                 OrderStatus `json:"status"`
	PaymentLinkURL         string      `json:"payment_link_url,omitempty"`
	TransactionHash        *string     `json:"transaction_hash,omitempty"`
	LiquidityServerOrderID *string     `json:"liquidity_server_order_id,omitempty"`
	ErrorMessage           *string     `json:"error_message,omitempty"`
	Notes                  []OrderNote `json:"notes,omitempty"`

	WebhookURL    string               `json:"webhook_url,omitempty"`
	WebhookStatus WebhookDeliveryState `json:"webhook_status"`
	Metadata      OrderMetadata        `json:"metadata"`

	CreatedAt             time.Time  `json:"created_at"`
	ExpiresAt             time.Time  `json:"expires_at"`
	SettlementInitiatedAt *time.Time `json:"settlement_initiated_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Expired reports whether the payment window has lapsed. Expiry is a lazily
// evaluated guard derived at read time, not a stored transition.
func (o *BusinessOnrampOrder) Expired(now time.Time) bool {
	return !o.Status.Terminal() && now.After(o.ExpiresAt)
}

// OrderNote is an advisory annotation appended by the update and error webhook
// channels. Notes never affect the authoritative order status.
type OrderNote struct {
	At      time.Time `json:"at"`
	Source  string    `json:"source"` // e.g. 'liquidity_update', 'liquidity_error'
	Message string    `json:"message"`
}

// WebhookDeliveryState records merchant webhook delivery bookkeeping for an order.
type WebhookDeliveryState struct {
	Attempts           int        `json:"attempts"`
	LastDeliveryStatus string     `json:"last_delivery_status,omitempty"` // 'delivered' | 'failed'
	LastAttemptAt      *time.Time `json:"last_attempt_at,omitempty"`
	LastDeliveryAt     *time.Time `json:"last_delivery_at,omitempty"`
}

// OrderMetadata is the audit snapshot persisted with every order: the token
// validation verdict and the pricing data the commercial terms were fixed from.
type OrderMetadata struct {
	Validation *TokenValidation `json:"validation,omitempty"`
	Pricing    *PriceQuote      `json:"pricing,omitempty"`
}

// ValidationCode classifies the outcome of token support validation.
type ValidationCode string

const (
	ValidationFullySupported         ValidationCode = "FULLY_SUPPORTED"
	ValidationBusinessSupportedOnly  ValidationCode = "BUSINESS_SUPPORTED_ONLY"
	ValidationNotSupportedByBusiness ValidationCode = "TOKEN_NOT_SUPPORTED_BY_BUSINESS"
	ValidationNetworkNotConfigured   ValidationCode = "NETWORK_NOT_CONFIGURED"
	ValidationNotSupportedByContract ValidationCode = "TOKEN_NOT_SUPPORTED_BY_SMART_CONTRACT"
	ValidationNoLiquidity            ValidationCode = "NO_LIQUIDITY_AVAILABLE"
	ValidationInsufficientLiquidity  ValidationCode = "INSUFFICIENT_LIQUIDITY"
	ValidationError                  ValidationCode = "VALIDATION_ERROR"
)

// TokenValidation is the verdict produced by token support validation. The
// tri-state pointers stay nil when a check was skipped (non-base networks),
// which is an explicit documented degradation rather than an assumed pass.
type TokenValidation struct {
	Valid             bool           `json:"valid"`
	Code              ValidationCode `json:"code"`
	Message           string         `json:"message,omitempty"`
	BusinessSupported bool           `json:"business_supported"`
	ContractSupported *bool          `json:"contract_supported,omitempty"`
	HasLiquidity      *bool          `json:"has_liquidity,omitempty"`
	PriceData         *ReserveQuote  `json:"price_data,omitempty"`
}

// ReserveQuote is the raw on-chain quote for a token amount, denominated in the
// stable reference currency (USDC).
type ReserveQuote struct {
	USDCValue         decimal.Decimal `json:"usdc_value"`
	PricePerTokenUSDC decimal.Decimal `json:"price_per_token_usdc"`
	BestRoute         string          `json:"best_route"`
}

// Price source tags. A fallback NGN rate must never be indistinguishable from a
// live one, so the rate source is recorded alongside the quote source.
const (
	PriceSourceDEX         = "smart_contract_dex"
	PriceSourceInternalAPI = "internal_api"

	RateSourceInternalAPI = "internal_rate_api"
	RateSourceFallback    = "fallback_constant"
)

// PriceQuote is the pricing snapshot an order's commercial terms are fixed from.
// ExchangeRate and EstimatedTokenAmount on the order are never recomputed after
// creation; this snapshot is persisted for audit.
type PriceQuote struct {
	Symbol            string          `json:"symbol"`
	Network           Network         `json:"network"`
	ContractAddress   string          `json:"contract_address"`
	TokenDecimals     int32           `json:"token_decimals"`
	UnitPriceNGN      decimal.Decimal `json:"unit_price_ngn"`     // NGN per 1 token
	TotalNGN          decimal.Decimal `json:"total_ngn"`          // NGN for the quoted amount
	FiatToTokenRate   decimal.Decimal `json:"fiat_to_token_rate"` // tokens per 1 NGN
	Source            string          `json:"source"`
	RateSource        string          `json:"rate_source,omitempty"`
	USDCValue         decimal.Decimal `json:"usdc_value,omitempty"`
	PricePerTokenUSDC decimal.Decimal `json:"price_per_token_usdc,omitempty"`
	BestRoute         string          `json:"best_route,omitempty"`
}

// CreateOrderRequest is the DTO for incoming order creation API requests.
type CreateOrderRequest struct {
	CustomerEmail  string          `json:"customer_email"`
	CustomerName   string          `json:"customer_name"`
	CustomerWallet string          `json:"customer_wallet"`
	Amount         decimal.Decimal `json:"amount"` // NGN
	TargetToken    string          `json:"target_token"`
	TargetNetwork  Network         `json:"target_network"`
	WebhookURL     string          `json:"webhook_url,omitempty"`
}
