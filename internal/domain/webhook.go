/**
 * @description
 * This file defines the inbound webhook payloads the liquidity server delivers
 * to the onramp-service, and the merchant-facing event payloads forwarded on.
 * All inbound channels identify the order by its internal order id.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement statuses the liquidity server may report.
const (
	SettlementStatusCompleted  = "completed"
	SettlementStatusFailed     = "failed"
	SettlementStatusProcessing = "processing"
)

// SettlementWebhook is the payload of the settlement channel. Status drives the
// order state machine; the remaining fields are only read for terminal statuses.
type SettlementWebhook struct {
	OrderID           string           `json:"orderId"`
	Status            string           `json:"status"`
	TransactionHash   string           `json:"transactionHash,omitempty"`
	ActualTokenAmount *decimal.Decimal `json:"actualTokenAmount,omitempty"`
	LiquidityOrderID  string           `json:"liquidityOrderId,omitempty"`
	Message           string           `json:"message,omitempty"`
}

// UpdateWebhook carries a free-text progress message. It only ever annotates
// the order's advisory notes, never its authoritative status.
type UpdateWebhook struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

// ErrorWebhook reports an upstream settlement error. Retryable errors annotate
// the order and leave its state untouched so a later definitive settlement
// webhook can still land; non-retryable errors fail the order permanently.
type ErrorWebhook struct {
	OrderID string       `json:"orderId"`
	Error   WebhookError `json:"error"`
}

// WebhookError is the error detail attached to an error-channel delivery.
type WebhookError struct {
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Merchant webhook event names emitted by this service.
const (
	MerchantEventOrderCreated   = "order.created"
	MerchantEventOrderCompleted = "order.completed"
	MerchantEventOrderFailed    = "order.failed"
	MerchantEventStatusUpdate   = "status_update"
)

// OrderEventPayload is the order view delivered to merchant webhook URLs and
// published to the event broker.
type OrderEventPayload struct {
	OrderID              string           `json:"order_id"`
	Reference            string           `json:"business_order_reference"`
	BusinessID           string           `json:"business_id"`
	Status               OrderStatus      `json:"status"`
	Amount               decimal.Decimal  `json:"amount"`
	TargetToken          string           `json:"target_token"`
	TargetNetwork        Network          `json:"target_network"`
	EstimatedTokenAmount decimal.Decimal  `json:"estimated_token_amount"`
	ActualTokenAmount    *decimal.Decimal `json:"actual_token_amount,omitempty"`
	TransactionHash      *string          `json:"transaction_hash,omitempty"`
	ErrorMessage         *string          `json:"error_message,omitempty"`
	Note                 string           `json:"note,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// NewOrderEventPayload builds the merchant-facing view of an order.
func NewOrderEventPayload(o *BusinessOnrampOrder) OrderEventPayload {
	return OrderEventPayload{
		OrderID:              o.ID.String(),
		Reference:            o.Reference,
		BusinessID:           o.BusinessID.String(),
		Status:               o.Status,
		Amount:               o.Amount,
		TargetToken:          o.TargetToken,
		TargetNetwork:        o.TargetNetwork,
		EstimatedTokenAmount: o.EstimatedTokenAmount,
		ActualTokenAmount:    o.ActualTokenAmount,
		TransactionHash:      o.TransactionHash,
		ErrorMessage:         o.ErrorMessage,
		CreatedAt:            o.CreatedAt,
	}
}
