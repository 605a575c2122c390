/**
 * @description
 * This file sets up the HTTP router for the onramp-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/store"
)

// OnrampRoutes creates and returns the router for the onramp service.
func OnrampRoutes(h *OnrampHandlers, wh *WebhookHandlers, repo store.Repository, merchantJWTSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/api/v1/onramp", func(r chi.Router) {
		// Business integration endpoints, authenticated by API key.
		r.Group(func(r chi.Router) {
			r.Use(BusinessAuthMiddleware(repo))

			r.Post("/orders", h.CreateOrderHandler)
			r.Get("/orders/{orderID}", h.GetOrderHandler)
		})

		// Merchant dashboard endpoints, authenticated by JWT.
		r.Group(func(r chi.Router) {
			r.Use(MerchantJWTMiddleware(merchantJWTSecret))

			r.Get("/orders", h.ListOrdersHandler)
		})

		// Liquidity server webhook channels, authenticated by HMAC signature.
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/settlement", wh.SettlementWebhookHandler)
			r.Post("/update", wh.UpdateWebhookHandler)
			r.Post("/error", wh.ErrorWebhookHandler)
		})
	})

	return r
}
