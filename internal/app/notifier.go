/**
 * @description
 * This file implements merchant webhook notification. Lifecycle transitions
 * produce signed outbound webhooks to the merchant's registered URL; delivery
 * outcomes are recorded on the order so operators can see the attempt history.
 *
 * @dependencies
 * - internal/store: persisting delivery state.
 * - pkg/webhookdispatcher: signed HTTP delivery.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/store"
)

// MerchantNotifier delivers order lifecycle webhooks to merchants and keeps
// the per-order delivery state current.
type MerchantNotifier struct {
	repo       store.Repository
	dispatcher MerchantWebhookDispatcher
}

func NewMerchantNotifier(repo store.Repository, dispatcher MerchantWebhookDispatcher) *MerchantNotifier {
	return &MerchantNotifier{repo: repo, dispatcher: dispatcher}
}

// Notify sends one lifecycle event to the merchant. Orders without a webhook
// URL are skipped silently. Delivery failures are logged and recorded but do
// not affect order state.
func (n *MerchantNotifier) Notify(ctx context.Context, order *domain.BusinessOnrampOrder, secret, event string, data any) {
	if order.WebhookURL == "" {
		return
	}

	result := n.dispatcher.Deliver(order.WebhookURL, secret, event, data)

	now := time.Now().UTC()
	state := order.WebhookStatus
	state.Attempts++
	state.LastAttemptAt = &now
	if result.Sent {
		state.LastDeliveryStatus = "delivered"
		state.LastDeliveryAt = &now
	} else {
		state.LastDeliveryStatus = "failed"
		if result.Err != nil {
			log.Printf("level=warn component=merchant_notifier msg=\"webhook delivery failed\" order_id=%s event=%s error=%q", order.ID, event, result.Err)
		} else {
			log.Printf("level=warn component=merchant_notifier msg=\"webhook delivery rejected\" order_id=%s event=%s status_code=%d", order.ID, event, result.StatusCode)
		}
	}

	if err := n.repo.RecordWebhookDelivery(ctx, order.ID, state); err != nil {
		log.Printf("level=error component=merchant_notifier msg=\"failed to record webhook delivery state\" order_id=%s error=%q", order.ID, err)
	}
	order.WebhookStatus = state
}
