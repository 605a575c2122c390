/**
 * @description
 * This file defines the structured rejection error returned by the order
 * service. It carries the HTTP status, a stable machine-readable code and
 * optional validation detail so the API layer can render a precise response
 * without inspecting error strings.
 */

package app

import "github.com/abokixyz/Aboki-B2B-sub004/internal/domain"

// OrderRejection is returned by OnrampService when an order cannot be
// created. It maps directly onto an API error response.
type OrderRejection struct {
	HTTPStatus        int
	Code              string
	Message           string
	Validation        *domain.TokenValidation
	RetryAfterSeconds int
}

func (r *OrderRejection) Error() string {
	return r.Message
}
