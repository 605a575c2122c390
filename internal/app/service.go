/**
 * @description
 * This file contains the core business logic for onramp order creation and
 * retrieval. Order creation is a synchronous pipeline: rate limit, amount
 * bounds, business token resolution, on-chain support validation, pricing,
 * fee computation, persistence and payment link issuance. The commercial
 * terms (exchange rate, fee, estimated token amount) are fixed at creation
 * and never recomputed.
 *
 * @dependencies
 * - internal/store: Order and business persistence.
 * - pkg/paymentclient: Hosted fiat checkout links.
 * - pkg/rabbitmq: Lifecycle event publishing.
 */

package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/store"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/paymentclient"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/rabbitmq"
)

// Rejection codes surfaced to API clients on order creation failures.
const (
	RejectionInvalidRequest    = "INVALID_REQUEST"
	RejectionAmountOutOfRange  = "AMOUNT_OUT_OF_RANGE"
	RejectionRateLimited       = "RATE_LIMIT_EXCEEDED"
	RejectionTokenNotSupported = "TOKEN_NOT_SUPPORTED"
	RejectionValidationFailed  = "TOKEN_VALIDATION_FAILED"
	RejectionPricingFailed     = "PRICING_UNAVAILABLE"
	RejectionPaymentLinkFailed = "PAYMENT_LINK_FAILED"
	RejectionInternal          = "INTERNAL_ERROR"
)

const orderRateLimitScope = "onramp_order_create"

// OnrampServiceConfig carries the tunables the order pipeline enforces.
type OnrampServiceConfig struct {
	MinOrderAmountNGN  decimal.Decimal
	MaxOrderAmountNGN  decimal.Decimal
	OrderExpiry        time.Duration
	RateLimitPerMinute int
}

// OnrampService orchestrates the order lifecycle.
type OnrampService struct {
	repo        store.Repository
	validator   *TokenSupportValidator
	oracle      *PriceOracle
	fees        *FeeCalculator
	payments    PaymentLinkClient
	notifier    *MerchantNotifier
	events      rabbitmq.Publisher
	rateLimiter OrderRateLimiter
	cfg         OnrampServiceConfig
}

func NewOnrampService(
	repo store.Repository,
	validator *TokenSupportValidator,
	oracle *PriceOracle,
	fees *FeeCalculator,
	payments PaymentLinkClient,
	notifier *MerchantNotifier,
	events rabbitmq.Publisher,
	rateLimiter OrderRateLimiter,
	cfg OnrampServiceConfig,
) *OnrampService {
	return &OnrampService{
		repo:        repo,
		validator:   validator,
		oracle:      oracle,
		fees:        fees,
		payments:    payments,
		notifier:    notifier,
		events:      events,
		rateLimiter: rateLimiter,
		cfg:         cfg,
	}
}

// CreateOrder runs the full order creation pipeline for an authenticated
// business. On failure it returns an *OrderRejection describing exactly what
// to tell the caller.
func (s *OnrampService) CreateOrder(ctx context.Context, business *domain.Business, req domain.CreateOrderRequest) (*domain.BusinessOnrampOrder, error) {
	if rej := validateCreateRequest(req); rej != nil {
		return nil, rej
	}

	if s.rateLimiter != nil && s.cfg.RateLimitPerMinute > 0 {
		count, retryAfter, err := s.rateLimiter.ConsumeRateLimit(ctx, orderRateLimitScope, business.ID.String(), s.cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			// Limiter outage must not block order creation.
			log.Printf("level=warn component=onramp_service msg=\"rate limiter unavailable; allowing request\" business_id=%s error=%q", business.ID, err)
		} else if count > s.cfg.RateLimitPerMinute {
			return nil, &OrderRejection{
				HTTPStatus:        http.StatusTooManyRequests,
				Code:              RejectionRateLimited,
				Message:           "order creation rate limit exceeded",
				RetryAfterSeconds: retryAfter,
			}
		}
	}

	if req.Amount.LessThan(s.cfg.MinOrderAmountNGN) || req.Amount.GreaterThan(s.cfg.MaxOrderAmountNGN) {
		return nil, &OrderRejection{
			HTTPStatus: http.StatusBadRequest,
			Code:       RejectionAmountOutOfRange,
			Message:    fmt.Sprintf("amount must be between %s and %s NGN", s.cfg.MinOrderAmountNGN, s.cfg.MaxOrderAmountNGN),
		}
	}

	token, rej := resolveBusinessToken(business, req.TargetNetwork, req.TargetToken)
	if rej != nil {
		return nil, rej
	}

	validation := s.validator.Validate(ctx, *token)
	if !validation.Valid {
		status := http.StatusBadRequest
		code := RejectionValidationFailed
		if validation.Code == domain.ValidationNotSupportedByContract {
			status = http.StatusForbidden
			code = RejectionTokenNotSupported
		}
		return nil, &OrderRejection{
			HTTPStatus: status,
			Code:       code,
			Message:    validation.Message,
			Validation: &validation,
		}
	}

	quote, err := s.oracle.PriceToken(ctx, token, decimal.NewFromInt(1), validation.PriceData)
	if err != nil {
		log.Printf("level=error component=onramp_service msg=\"pricing failed\" business_id=%s token=%s error=%q", business.ID, token.Symbol, err)
		return nil, &OrderRejection{
			HTTPStatus: http.StatusBadRequest,
			Code:       RejectionPricingFailed,
			Message:    fmt.Sprintf("unable to price %s on %s", token.Symbol, token.Network),
		}
	}

	breakdown, err := s.fees.Calculate(business, token, req.Amount, quote.FiatToTokenRate)
	if err != nil {
		return nil, &OrderRejection{
			HTTPStatus: http.StatusBadRequest,
			Code:       RejectionInvalidRequest,
			Message:    err.Error(),
		}
	}

	reference, err := newOrderReference()
	if err != nil {
		return nil, &OrderRejection{
			HTTPStatus: http.StatusInternalServerError,
			Code:       RejectionInternal,
			Message:    "failed to generate order reference",
		}
	}

	webhookURL := strings.TrimSpace(req.WebhookURL)
	if webhookURL == "" {
		webhookURL = business.WebhookURL
	}

	now := time.Now().UTC()
	order := &domain.BusinessOnrampOrder{
		ID:                   uuid.New(),
		Reference:            reference,
		BusinessID:           business.ID,
		CustomerEmail:        strings.TrimSpace(req.CustomerEmail),
		CustomerName:         strings.TrimSpace(req.CustomerName),
		CustomerWallet:       strings.TrimSpace(req.CustomerWallet),
		Amount:               req.Amount,
		TargetToken:          token.Symbol,
		TargetNetwork:        token.Network,
		TokenContractAddress: token.ContractAddress,
		ExchangeRate:         quote.UnitPriceNGN,
		EstimatedTokenAmount: breakdown.TokenAmount,
		FeePercentage:        breakdown.FeePercentage,
		FeeAmount:            breakdown.FeeAmount,
		NetAmount:            breakdown.NetAmount,
		Status:               domain.OrderStatusInitiated,
		WebhookURL:           webhookURL,
		Metadata: domain.OrderMetadata{
			Validation: &validation,
			Pricing:    quote,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.OrderExpiry),
		UpdatedAt: now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		log.Printf("level=error component=onramp_service msg=\"failed to persist order\" business_id=%s reference=%s error=%q", business.ID, reference, err)
		return nil, &OrderRejection{
			HTTPStatus: http.StatusInternalServerError,
			Code:       RejectionInternal,
			Message:    "failed to create order",
		}
	}

	checkout, err := s.payments.CreateCheckout(ctx, paymentclient.CheckoutRequest{
		Reference:     order.Reference,
		Amount:        order.Amount,
		Currency:      "NGN",
		CustomerEmail: order.CustomerEmail,
		CustomerName:  order.CustomerName,
		Narration:     fmt.Sprintf("Purchase of %s on %s", order.TargetToken, order.TargetNetwork),
	})
	if err != nil {
		// The order row stays INITIATED so the creation can be retried with a
		// fresh reference; no payment was ever collectable for this one.
		log.Printf("level=error component=onramp_service msg=\"payment link creation failed\" order_id=%s error=%q", order.ID, err)
		return nil, &OrderRejection{
			HTTPStatus: http.StatusBadGateway,
			Code:       RejectionPaymentLinkFailed,
			Message:    "failed to create payment link",
		}
	}
	order.PaymentLinkURL = checkout.Data.CheckoutURL
	if err := s.repo.UpdateOrderPaymentLink(ctx, order.ID, order.PaymentLinkURL); err != nil {
		log.Printf("level=error component=onramp_service msg=\"failed to store payment link\" order_id=%s error=%q", order.ID, err)
	}

	s.announceOrder(order, business.WebhookSecret, domain.MerchantEventOrderCreated, rabbitmq.RoutingKeyOrderCreated)

	return order, nil
}

// GetOrder fetches one order, scoped to the requesting business.
func (s *OnrampService) GetOrder(ctx context.Context, businessID, orderID uuid.UUID) (*domain.BusinessOnrampOrder, error) {
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BusinessID != businessID {
		// Cross-tenant probing is indistinguishable from a missing order.
		return nil, store.ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByReference fetches one order by its merchant-facing reference,
// scoped to the requesting business.
func (s *OnrampService) GetOrderByReference(ctx context.Context, businessID uuid.UUID, reference string) (*domain.BusinessOnrampOrder, error) {
	order, err := s.repo.FindOrderByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if order.BusinessID != businessID {
		return nil, store.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns a page of the business's orders, newest first.
func (s *OnrampService) ListOrders(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]domain.BusinessOnrampOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListOrdersByBusiness(ctx, businessID, limit, offset)
}

// announceOrder fires the merchant webhook and the broker event for one
// lifecycle transition, off the request path.
func (s *OnrampService) announceOrder(order *domain.BusinessOnrampOrder, secret, event, routingKey string) {
	snapshot := *order
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		payload := domain.NewOrderEventPayload(&snapshot)
		s.notifier.Notify(ctx, &snapshot, secret, event, payload)
		if err := s.events.Publish(ctx, rabbitmq.EventsExchange, routingKey, payload); err != nil {
			log.Printf("level=warn component=onramp_service msg=\"event publish failed\" order_id=%s routing_key=%s error=%q", snapshot.ID, routingKey, err)
		}
	}()
}

func validateCreateRequest(req domain.CreateOrderRequest) *OrderRejection {
	reject := func(msg string) *OrderRejection {
		return &OrderRejection{
			HTTPStatus: http.StatusBadRequest,
			Code:       RejectionInvalidRequest,
			Message:    msg,
		}
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(req.CustomerEmail)); err != nil {
		return reject("customer_email is required and must be a valid email address")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return reject("customer_name is required")
	}
	if strings.TrimSpace(req.CustomerWallet) == "" {
		return reject("customer_wallet is required")
	}
	if strings.TrimSpace(req.TargetToken) == "" {
		return reject("target_token is required")
	}
	if !domain.KnownNetwork(req.TargetNetwork) {
		return reject(fmt.Sprintf("target_network %q is not supported", req.TargetNetwork))
	}
	if req.Amount.Sign() <= 0 {
		return reject("amount must be a positive NGN value")
	}
	if wh := strings.TrimSpace(req.WebhookURL); wh != "" && !strings.HasPrefix(wh, "https://") && !strings.HasPrefix(wh, "http://") {
		return reject("webhook_url must be an http(s) URL")
	}
	return nil
}

// resolveBusinessToken maps the requested network/symbol pair onto the
// business's configured token list, distinguishing an unconfigured network
// from an unsupported symbol.
func resolveBusinessToken(business *domain.Business, network domain.Network, symbol string) (*domain.SupportedToken, *OrderRejection) {
	if !business.HasActiveTokens(network) {
		validation := domain.TokenValidation{
			Code:    domain.ValidationNetworkNotConfigured,
			Message: fmt.Sprintf("business has no active tokens on %s", network),
		}
		return nil, &OrderRejection{
			HTTPStatus: http.StatusBadRequest,
			Code:       RejectionValidationFailed,
			Message:    validation.Message,
			Validation: &validation,
		}
	}
	token := business.ActiveToken(network, symbol)
	if token == nil {
		validation := domain.TokenValidation{
			Code:    domain.ValidationNotSupportedByBusiness,
			Message: fmt.Sprintf("token %s on %s is not enabled for this business", symbol, network),
		}
		return nil, &OrderRejection{
			HTTPStatus: http.StatusBadRequest,
			Code:       RejectionValidationFailed,
			Message:    validation.Message,
			Validation: &validation,
		}
	}
	return token, nil
}

// OrderReferencePrefix marks merchant-facing order references, which are
// accepted interchangeably with order UUIDs on lookups.
const OrderReferencePrefix = "ABK-"

func newOrderReference() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return OrderReferencePrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
