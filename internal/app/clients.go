/**
 * @description
 * This file declares the narrow client interfaces the application services
 * depend on. The concrete implementations live under pkg/ (reserveclient,
 * priceapiclient, paymentclient, webhookdispatcher); tests substitute stubs.
 */

package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/pkg/paymentclient"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/reserveclient"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/webhookdispatcher"
)

// ReserveClient is the subset of the on-chain reserve/DEX client used here.
type ReserveClient interface {
	IsTokenSupported(ctx context.Context, tokenAddress string) (bool, error)
	QuoteTokenValue(ctx context.Context, tokenAddress string, tokenDecimals int32, amount decimal.Decimal) (*reserveclient.Quote, error)
}

// PriceAPI is the subset of the internal reference-price API client used here.
type PriceAPI interface {
	GetTokenPrice(ctx context.Context, symbol, network string) (decimal.Decimal, error)
	GetUSDCExchangeRate(ctx context.Context) (decimal.Decimal, error)
}

// PaymentLinkClient issues hosted fiat checkout links.
type PaymentLinkClient interface {
	CreateCheckout(ctx context.Context, req paymentclient.CheckoutRequest) (*paymentclient.CheckoutResponse, error)
}

// MerchantWebhookDispatcher delivers one signed webhook to a merchant URL.
type MerchantWebhookDispatcher interface {
	Deliver(url, secret, event string, data any) webhookdispatcher.Result
}
