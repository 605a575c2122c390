/**
 * @description
 * This file contains the HTTP handlers for the inbound liquidity-server
 * webhooks: the settlement channel plus the advisory update and error
 * channels. Every channel verifies the HMAC signature over the raw body
 * before any parsing; a bad signature is rejected with no side effects.
 *
 * @dependencies
 * - encoding/json, io, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: Processing logic and errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/app"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/store"
)

const maxWebhookBodyBytes = 1 << 20 // 1 MiB

// WebhookHandlers holds the settlement processor and the inbound signing secret.
type WebhookHandlers struct {
	processor *app.SettlementProcessor
	secret    string
}

// NewWebhookHandlers creates a new instance of WebhookHandlers.
func NewWebhookHandlers(processor *app.SettlementProcessor, secret string) *WebhookHandlers {
	return &WebhookHandlers{processor: processor, secret: secret}
}

// readVerifiedBody buffers the raw body and checks its signature. It writes
// the rejection response itself and returns nil when verification fails.
func (h *WebhookHandlers) readVerifiedBody(w http.ResponseWriter, r *http.Request, channel string) []byte {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Printf("level=warn component=api endpoint=webhook_%s outcome=reject reason=body_read_failed err=%v", channel, err)
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read request body")
		return nil
	}

	if !VerifyWebhookSignature(h.secret, body, r.Header.Get(WebhookSignatureHeader)) {
		log.Printf("level=warn component=api endpoint=webhook_%s outcome=reject reason=invalid_signature", channel)
		writeError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "webhook signature verification failed")
		return nil
	}
	return body
}

// SettlementWebhookHandler applies a settlement-channel delivery.
func (h *WebhookHandlers) SettlementWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body := h.readVerifiedBody(w, r, "settlement")
	if body == nil {
		return
	}

	var payload domain.SettlementWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid settlement payload")
		return
	}

	if err := h.processor.ProcessSettlement(r.Context(), payload); err != nil {
		h.writeProcessingError(w, "settlement", payload.OrderID, err)
		return
	}
	writeJSON(w, http.StatusOK, responseEnvelope{Success: true})
}

// UpdateWebhookHandler records an advisory progress delivery.
func (h *WebhookHandlers) UpdateWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body := h.readVerifiedBody(w, r, "update")
	if body == nil {
		return
	}

	var payload domain.UpdateWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid update payload")
		return
	}

	if err := h.processor.ProcessUpdate(r.Context(), payload); err != nil {
		h.writeProcessingError(w, "update", payload.OrderID, err)
		return
	}
	writeJSON(w, http.StatusOK, responseEnvelope{Success: true})
}

// ErrorWebhookHandler applies an error-channel delivery.
func (h *WebhookHandlers) ErrorWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body := h.readVerifiedBody(w, r, "error")
	if body == nil {
		return
	}

	var payload domain.ErrorWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid error payload")
		return
	}

	if err := h.processor.ProcessError(r.Context(), payload); err != nil {
		h.writeProcessingError(w, "error", payload.OrderID, err)
		return
	}
	writeJSON(w, http.StatusOK, responseEnvelope{Success: true})
}

func (h *WebhookHandlers) writeProcessingError(w http.ResponseWriter, channel, orderID string, err error) {
	switch {
	case errors.Is(err, store.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found")
	case errors.Is(err, app.ErrUnknownSettlementStatus):
		writeError(w, http.StatusBadRequest, "UNKNOWN_STATUS", err.Error())
	default:
		log.Printf("level=error component=api endpoint=webhook_%s outcome=error order_id=%s err=%v", channel, orderID, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to process webhook")
	}
}
