/**
 * @description
 * This file contains the HTTP handlers for the onramp-service's order
 * endpoints. Handlers parse requests, call the order service, and translate
 * its results (including structured rejections) into the JSON response
 * envelope. They are the bridge between the web layer and the business logic.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: Service logic, models, errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/app"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/store"
)

// OnrampHandlers holds the application service that order handlers use.
type OnrampHandlers struct {
	service *app.OnrampService
}

// NewOnrampHandlers creates a new instance of OnrampHandlers.
func NewOnrampHandlers(service *app.OnrampService) *OnrampHandlers {
	return &OnrampHandlers{service: service}
}

// orderResponse is the API view of an order: the persisted record plus the
// lazily derived expiry flag.
type orderResponse struct {
	domain.BusinessOnrampOrder
	Expired bool `json:"expired"`
}

func newOrderResponse(order *domain.BusinessOnrampOrder) orderResponse {
	return orderResponse{
		BusinessOnrampOrder: *order,
		Expired:             order.Expired(time.Now().UTC()),
	}
}

type errorBody struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details *domain.TokenValidation `json:"details,omitempty"`
}

type responseEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

// CreateOrderHandler handles order creation for an authenticated business.
func (h *OnrampHandlers) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	business, ok := GetBusiness(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not get business from context")
		return
	}

	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_order outcome=reject reason=invalid_json business_id=%s err=%v", business.ID, err)
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), business, req)
	if err != nil {
		var rejection *app.OrderRejection
		if errors.As(err, &rejection) {
			log.Printf("level=info component=api endpoint=create_order outcome=reject business_id=%s code=%s", business.ID, rejection.Code)
			if rejection.RetryAfterSeconds > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(rejection.RetryAfterSeconds))
			}
			writeJSON(w, rejection.HTTPStatus, responseEnvelope{
				Error: &errorBody{
					Code:    rejection.Code,
					Message: rejection.Message,
					Details: rejection.Validation,
				},
			})
			return
		}
		log.Printf("level=error component=api endpoint=create_order outcome=error business_id=%s err=%v", business.ID, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create order")
		return
	}

	log.Printf("level=info component=api endpoint=create_order outcome=accepted business_id=%s order_id=%s reference=%s amount=%s", business.ID, order.ID, order.Reference, order.Amount)
	writeJSON(w, http.StatusCreated, responseEnvelope{Success: true, Data: newOrderResponse(order)})
}

// GetOrderHandler returns one order scoped to the authenticated business.
func (h *OnrampHandlers) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	business, ok := GetBusiness(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not get business from context")
		return
	}

	key := chi.URLParam(r, "orderID")

	var (
		order *domain.BusinessOnrampOrder
		err   error
	)
	if strings.HasPrefix(key, app.OrderReferencePrefix) {
		order, err = h.service.GetOrderByReference(r.Context(), business.ID, key)
	} else {
		orderID, parseErr := uuid.Parse(key)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ORDER_ID", "order id must be a UUID or an order reference")
			return
		}
		order, err = h.service.GetOrder(r.Context(), business.ID, orderID)
	}
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found")
			return
		}
		log.Printf("level=error component=api endpoint=get_order outcome=error business_id=%s order=%s err=%v", business.ID, key, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch order")
		return
	}

	writeJSON(w, http.StatusOK, responseEnvelope{Success: true, Data: newOrderResponse(order)})
}

// ListOrdersHandler lists a page of the dashboard-authenticated merchant's
// orders, newest first.
func (h *OnrampHandlers) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	businessID, ok := GetBusinessID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not get business id from context")
		return
	}

	limit, err := parseOptionalPositiveInt(r.URL.Query().Get("limit"), 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid limit")
		return
	}
	offset, err := parseOptionalPositiveInt(r.URL.Query().Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid offset")
		return
	}

	orders, err := h.service.ListOrders(r.Context(), businessID, limit, offset)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_orders outcome=error business_id=%s err=%v", businessID, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list orders")
		return
	}

	responses := make([]orderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, newOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, responseEnvelope{
		Success: true,
		Data: map[string]interface{}{
			"orders": responses,
			"limit":  limit,
			"offset": offset,
			"count":  len(responses),
		},
	})
}

func parseOptionalPositiveInt(raw string, defaultValue int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, errors.New("must be >= 0")
	}
	return value, nil
}

// writeJSON is a helper for writing JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, responseEnvelope{Error: &errorBody{Code: code, Message: message}})
}
