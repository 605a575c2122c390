package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/store"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/paymentclient"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/rabbitmq"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/reserveclient"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/webhookdispatcher"
)

// stubRepository implements store.Repository with overridable hooks. Methods
// without a hook fail loudly so tests only exercise what they wire up.
type stubRepository struct {
	findBusinessByIDFn       func(ctx context.Context, businessID uuid.UUID) (*domain.Business, error)
	findBusinessByAPIKeyFn   func(ctx context.Context, apiKey string) (*domain.Business, error)
	createOrderFn            func(ctx context.Context, order *domain.BusinessOnrampOrder) error
	findOrderByIDFn          func(ctx context.Context, orderID uuid.UUID) (*domain.BusinessOnrampOrder, error)
	findOrderByReferenceFn   func(ctx context.Context, reference string) (*domain.BusinessOnrampOrder, error)
	listOrdersByBusinessFn   func(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]domain.BusinessOnrampOrder, error)
	updateOrderPaymentLinkFn func(ctx context.Context, orderID uuid.UUID, paymentLinkURL string) error
	markOrderProcessingFn    func(ctx context.Context, orderID uuid.UUID, liquidityOrderID *string) error
	markOrderCompletedFn     func(ctx context.Context, orderID uuid.UUID, transactionHash string, actualTokenAmount decimal.Decimal, liquidityOrderID *string) error
	markOrderFailedFn        func(ctx context.Context, orderID uuid.UUID, errorMessage string) error
	appendOrderNoteFn        func(ctx context.Context, orderID uuid.UUID, note domain.OrderNote) error
	recordWebhookDeliveryFn  func(ctx context.Context, orderID uuid.UUID, state domain.WebhookDeliveryState) error
}

var errStubNotWired = errors.New("stub method not wired")

func (s *stubRepository) FindBusinessByID(ctx context.Context, businessID uuid.UUID) (*domain.Business, error) {
	if s.findBusinessByIDFn == nil {
		return nil, errStubNotWired
	}
	return s.findBusinessByIDFn(ctx, businessID)
}

func (s *stubRepository) FindBusinessByAPIKey(ctx context.Context, apiKey string) (*domain.Business, error) {
	if s.findBusinessByAPIKeyFn == nil {
		return nil, errStubNotWired
	}
	return s.findBusinessByAPIKeyFn(ctx, apiKey)
}

func (s *stubRepository) CreateOrder(ctx context.Context, order *domain.BusinessOnrampOrder) error {
	if s.createOrderFn == nil {
		return errStubNotWired
	}
	return s.createOrderFn(ctx, order)
}

func (s *stubRepository) FindOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.BusinessOnrampOrder, error) {
	if s.findOrderByIDFn == nil {
		return nil, errStubNotWired
	}
	return s.findOrderByIDFn(ctx, orderID)
}

func (s *stubRepository) FindOrderByReference(ctx context.Context, reference string) (*domain.BusinessOnrampOrder, error) {
	if s.findOrderByReferenceFn == nil {
		return nil, errStubNotWired
	}
	return s.findOrderByReferenceFn(ctx, reference)
}

func (s *stubRepository) ListOrdersByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]domain.BusinessOnrampOrder, error) {
	if s.listOrdersByBusinessFn == nil {
		return nil, errStubNotWired
	}
	return s.listOrdersByBusinessFn(ctx, businessID, limit, offset)
}

func (s *stubRepository) UpdateOrderPaymentLink(ctx context.Context, orderID uuid.UUID, paymentLinkURL string) error {
	if s.updateOrderPaymentLinkFn == nil {
		return errStubNotWired
	}
	return s.updateOrderPaymentLinkFn(ctx, orderID, paymentLinkURL)
}

func (s *stubRepository) MarkOrderProcessing(ctx context.Context, orderID uuid.UUID, liquidityOrderID *string) error {
	if s.markOrderProcessingFn == nil {
		return errStubNotWired
	}
	return s.markOrderProcessingFn(ctx, orderID, liquidityOrderID)
}

func (s *stubRepository) MarkOrderCompleted(ctx context.Context, orderID uuid.UUID, transactionHash string, actualTokenAmount decimal.Decimal, liquidityOrderID *string) error {
	if s.markOrderCompletedFn == nil {
		return errStubNotWired
	}
	return s.markOrderCompletedFn(ctx, orderID, transactionHash, actualTokenAmount, liquidityOrderID)
}

func (s *stubRepository) MarkOrderFailed(ctx context.Context, orderID uuid.UUID, errorMessage string) error {
	if s.markOrderFailedFn == nil {
		return errStubNotWired
	}
	return s.markOrderFailedFn(ctx, orderID, errorMessage)
}

func (s *stubRepository) AppendOrderNote(ctx context.Context, orderID uuid.UUID, note domain.OrderNote) error {
	if s.appendOrderNoteFn == nil {
		return errStubNotWired
	}
	return s.appendOrderNoteFn(ctx, orderID, note)
}

func (s *stubRepository) RecordWebhookDelivery(ctx context.Context, orderID uuid.UUID, state domain.WebhookDeliveryState) error {
	if s.recordWebhookDeliveryFn == nil {
		return nil
	}
	return s.recordWebhookDeliveryFn(ctx, orderID, state)
}

var _ store.Repository = (*stubRepository)(nil)

// stubReserve implements ReserveClient with call capture.
type stubReserve struct {
	supported    bool
	supportedErr error
	quote        *reserveclient.Quote
	quoteErr     error

	supportCalls []string
	quoteCalls   []string
}

func (s *stubReserve) IsTokenSupported(ctx context.Context, tokenAddress string) (bool, error) {
	s.supportCalls = append(s.supportCalls, tokenAddress)
	return s.supported, s.supportedErr
}

func (s *stubReserve) QuoteTokenValue(ctx context.Context, tokenAddress string, tokenDecimals int32, amount decimal.Decimal) (*reserveclient.Quote, error) {
	s.quoteCalls = append(s.quoteCalls, tokenAddress)
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	return s.quote, nil
}

// stubPriceAPI implements PriceAPI with call capture.
type stubPriceAPI struct {
	price    decimal.Decimal
	priceErr error
	rate     decimal.Decimal
	rateErr  error

	priceCalled bool
	rateCalled  bool
}

func (s *stubPriceAPI) GetTokenPrice(ctx context.Context, symbol, network string) (decimal.Decimal, error) {
	s.priceCalled = true
	return s.price, s.priceErr
}

func (s *stubPriceAPI) GetUSDCExchangeRate(ctx context.Context) (decimal.Decimal, error) {
	s.rateCalled = true
	return s.rate, s.rateErr
}

// stubPayments implements PaymentLinkClient.
type stubPayments struct {
	checkoutURL string
	err         error
	calls       []paymentclient.CheckoutRequest
}

func (s *stubPayments) CreateCheckout(ctx context.Context, req paymentclient.CheckoutRequest) (*paymentclient.CheckoutResponse, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	resp := &paymentclient.CheckoutResponse{}
	resp.Data.Reference = req.Reference
	resp.Data.CheckoutURL = s.checkoutURL
	return resp, nil
}

// stubDispatcher implements MerchantWebhookDispatcher with call capture.
type stubDispatcher struct {
	result webhookdispatcher.Result
	calls  []string // event names in delivery order
	urls   []string
}

func (s *stubDispatcher) Deliver(url, secret, event string, data any) webhookdispatcher.Result {
	s.calls = append(s.calls, event)
	s.urls = append(s.urls, url)
	return s.result
}

// stubPublisher implements rabbitmq.Publisher with call capture.
type stubPublisher struct {
	err         error
	routingKeys []string
}

func (s *stubPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	s.routingKeys = append(s.routingKeys, routingKey)
	return s.err
}

func (s *stubPublisher) Close() {}

var _ rabbitmq.Publisher = (*stubPublisher)(nil)
