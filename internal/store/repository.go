/**
 * @description
 * This file defines the `Repository` interface: the contract for all data access
 * the onramp-service performs. Business records are read-only here (owned by the
 * company service); onramp orders are owned exclusively by this service.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For order and business identifiers.
 * - github.com/shopspring/decimal: For settled token amounts.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
)

var (
	ErrBusinessNotFound = errors.New("business not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateOrder   = errors.New("order reference already exists")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Business methods (read-only)
	FindBusinessByID(ctx context.Context, businessID uuid.UUID) (*domain.Business, error)
	FindBusinessByAPIKey(ctx context.Context, apiKey string) (*domain.Business, error)

	// Order methods
	CreateOrder(ctx context.Context, order *domain.BusinessOnrampOrder) error
	FindOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.BusinessOnrampOrder, error)
	FindOrderByReference(ctx context.Context, reference string) (*domain.BusinessOnrampOrder, error)
	ListOrdersByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]domain.BusinessOnrampOrder, error)
	UpdateOrderPaymentLink(ctx context.Context, orderID uuid.UUID, paymentLinkURL string) error

	// Settlement state transitions. Each guards against downgrading a terminal
	// state at the SQL level; ordering of concurrent deliveries is otherwise
	// last-writer-wins.
	MarkOrderProcessing(ctx context.Context, orderID uuid.UUID, liquidityOrderID *string) error
	MarkOrderCompleted(ctx context.Context, orderID uuid.UUID, transactionHash string, actualTokenAmount decimal.Decimal, liquidityOrderID *string) error
	MarkOrderFailed(ctx context.Context, orderID uuid.UUID, errorMessage string) error
	AppendOrderNote(ctx context.Context, orderID uuid.UUID, note domain.OrderNote) error

	// Merchant webhook delivery bookkeeping
	RecordWebhookDelivery(ctx context.Context, orderID uuid.UUID, state domain.WebhookDeliveryState) error
}
