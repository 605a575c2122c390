/**
 * @description
 * This file processes inbound webhooks from the liquidity server: the
 * settlement channel that drives the order state machine, plus the advisory
 * update and error channels. All processing is idempotent: replayed
 * deliveries for orders already in a terminal state are acknowledged without
 * mutation.
 *
 * @dependencies
 * - internal/store: Order state transitions.
 * - pkg/rabbitmq: Lifecycle event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/store"
	"github.com/abokixyz/Aboki-B2B-sub004/pkg/rabbitmq"
)

// ErrUnknownSettlementStatus is returned when the settlement channel reports a
// status outside the recognised set.
var ErrUnknownSettlementStatus = errors.New("unknown settlement status")

// Note sources for the advisory channels.
const (
	noteSourceUpdate = "liquidity_update"
	noteSourceError  = "liquidity_error"
)

// SettlementProcessor applies liquidity-server webhook deliveries to orders.
type SettlementProcessor struct {
	repo     store.Repository
	notifier *MerchantNotifier
	events   rabbitmq.Publisher
}

func NewSettlementProcessor(repo store.Repository, notifier *MerchantNotifier, events rabbitmq.Publisher) *SettlementProcessor {
	return &SettlementProcessor{
		repo:     repo,
		notifier: notifier,
		events:   events,
	}
}

// ProcessSettlement applies one settlement-channel delivery. Terminal orders
// absorb any further delivery silently; a repeated 'processing' is a no-op at
// the SQL level.
func (p *SettlementProcessor) ProcessSettlement(ctx context.Context, webhook domain.SettlementWebhook) error {
	order, err := p.loadOrder(ctx, webhook.OrderID)
	if err != nil {
		return err
	}
	if order.Status.Terminal() {
		log.Printf("level=info component=settlement_processor msg=\"settlement for terminal order ignored\" order_id=%s status=%s delivered_status=%s", order.ID, order.Status, webhook.Status)
		return nil
	}

	switch webhook.Status {
	case domain.SettlementStatusProcessing:
		liquidityID := optionalString(webhook.LiquidityOrderID)
		if err := p.repo.MarkOrderProcessing(ctx, order.ID, liquidityID); err != nil {
			return fmt.Errorf("mark order processing: %w", err)
		}
		return nil

	case domain.SettlementStatusCompleted:
		actual := order.EstimatedTokenAmount
		if webhook.ActualTokenAmount != nil {
			actual = *webhook.ActualTokenAmount
		}
		liquidityID := optionalString(webhook.LiquidityOrderID)
		if err := p.repo.MarkOrderCompleted(ctx, order.ID, webhook.TransactionHash, actual, liquidityID); err != nil {
			return fmt.Errorf("mark order completed: %w", err)
		}

		now := time.Now().UTC()
		order.Status = domain.OrderStatusCompleted
		order.ActualTokenAmount = &actual
		order.CompletedAt = &now
		if webhook.TransactionHash != "" {
			hash := webhook.TransactionHash
			order.TransactionHash = &hash
		}
		if liquidityID != nil {
			order.LiquidityServerOrderID = liquidityID
		}
		p.announce(ctx, order, domain.MerchantEventOrderCompleted, rabbitmq.RoutingKeyOrderCompleted, webhook.Message)
		return nil

	case domain.SettlementStatusFailed:
		message := webhook.Message
		if message == "" {
			message = "settlement failed"
		}
		if err := p.repo.MarkOrderFailed(ctx, order.ID, message); err != nil {
			return fmt.Errorf("mark order failed: %w", err)
		}
		order.Status = domain.OrderStatusFailed
		order.ErrorMessage = &message
		p.announce(ctx, order, domain.MerchantEventOrderFailed, rabbitmq.RoutingKeyOrderFailed, message)
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownSettlementStatus, webhook.Status)
	}
}

// ProcessUpdate records an advisory progress message against the order. The
// authoritative status never changes on this channel.
func (p *SettlementProcessor) ProcessUpdate(ctx context.Context, webhook domain.UpdateWebhook) error {
	order, err := p.loadOrder(ctx, webhook.OrderID)
	if err != nil {
		return err
	}

	message := webhook.Message
	if webhook.Status != "" {
		message = fmt.Sprintf("[%s] %s", webhook.Status, webhook.Message)
	}
	note := domain.OrderNote{
		At:      time.Now().UTC(),
		Source:  noteSourceUpdate,
		Message: message,
	}
	if err := p.repo.AppendOrderNote(ctx, order.ID, note); err != nil {
		return fmt.Errorf("append order note: %w", err)
	}

	if !order.Status.Terminal() {
		p.notify(ctx, order, domain.MerchantEventStatusUpdate, message)
	}
	return nil
}

// ProcessError handles the error channel. Retryable errors only annotate the
// order so a later definitive settlement can still land; non-retryable errors
// fail it permanently.
func (p *SettlementProcessor) ProcessError(ctx context.Context, webhook domain.ErrorWebhook) error {
	order, err := p.loadOrder(ctx, webhook.OrderID)
	if err != nil {
		return err
	}

	message := webhook.Error.Message
	if webhook.Error.Code != "" {
		message = fmt.Sprintf("%s: %s", webhook.Error.Code, webhook.Error.Message)
	}

	if webhook.Error.Retryable {
		note := domain.OrderNote{
			At:      time.Now().UTC(),
			Source:  noteSourceError,
			Message: "retryable settlement error: " + message,
		}
		if err := p.repo.AppendOrderNote(ctx, order.ID, note); err != nil {
			return fmt.Errorf("append order note: %w", err)
		}
		return nil
	}

	if order.Status.Terminal() {
		return nil
	}
	if err := p.repo.MarkOrderFailed(ctx, order.ID, message); err != nil {
		return fmt.Errorf("mark order failed: %w", err)
	}
	order.Status = domain.OrderStatusFailed
	order.ErrorMessage = &message
	p.announce(ctx, order, domain.MerchantEventOrderFailed, rabbitmq.RoutingKeyOrderFailed, message)
	return nil
}

// loadOrder resolves the external order id to an order. Any unparseable id is
// reported as a missing order so the channel cannot be used to probe ids.
func (p *SettlementProcessor) loadOrder(ctx context.Context, rawOrderID string) (*domain.BusinessOnrampOrder, error) {
	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		return nil, store.ErrOrderNotFound
	}
	return p.repo.FindOrderByID(ctx, orderID)
}

func (p *SettlementProcessor) announce(ctx context.Context, order *domain.BusinessOnrampOrder, event, routingKey, note string) {
	p.notify(ctx, order, event, note)

	payload := domain.NewOrderEventPayload(order)
	payload.Note = note
	if err := p.events.Publish(ctx, rabbitmq.EventsExchange, routingKey, payload); err != nil {
		log.Printf("level=warn component=settlement_processor msg=\"event publish failed\" order_id=%s routing_key=%s error=%q", order.ID, routingKey, err)
	}
}

func (p *SettlementProcessor) notify(ctx context.Context, order *domain.BusinessOnrampOrder, event, note string) {
	business, err := p.repo.FindBusinessByID(ctx, order.BusinessID)
	if err != nil {
		log.Printf("level=error component=settlement_processor msg=\"cannot load business for webhook\" order_id=%s business_id=%s error=%q", order.ID, order.BusinessID, err)
		return
	}
	payload := domain.NewOrderEventPayload(order)
	payload.Note = note
	p.notifier.Notify(ctx, order, business.WebhookSecret, event, payload)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
