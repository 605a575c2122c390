/**
 * @description
 * This file contains custom middleware for the HTTP router: API-key
 * authentication for business integrations and JWT authentication for the
 * merchant dashboard. Both attach the authenticated identity to the request
 * context for downstream handlers.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: Dashboard token verification.
 * - internal/store: Business lookup by API key.
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
	"github.com/abokixyz/Aboki-B2B-sub004/internal/store"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	businessContextKey   contextKey = "business"
	businessIDContextKey contextKey = "businessID"
)

// APIKeyHeader authenticates business integration requests.
const APIKeyHeader = "X-API-Key"

// BusinessAuthMiddleware authenticates requests by API key and attaches the
// resolved business to the request context.
func BusinessAuthMiddleware(repo store.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, "MISSING_API_KEY", "X-API-Key header required")
				return
			}

			business, err := repo.FindBusinessByAPIKey(r.Context(), apiKey)
			if err != nil {
				if errors.Is(err, store.ErrBusinessNotFound) {
					writeError(w, http.StatusUnauthorized, "INVALID_API_KEY", "invalid API key")
					return
				}
				log.Printf("level=error component=api msg=\"business lookup failed\" err=%v", err)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "unable to authenticate request")
				return
			}

			ctx := context.WithValue(r.Context(), businessContextKey, business)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetBusiness retrieves the authenticated business from the request context.
func GetBusiness(ctx context.Context) (*domain.Business, bool) {
	business, ok := ctx.Value(businessContextKey).(*domain.Business)
	return business, ok
}

// MerchantJWTMiddleware creates a middleware that validates merchant dashboard
// tokens. Tokens are HS256 with the business id in the 'sub' claim.
func MerchantJWTMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid Authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token claims")
				return
			}
			sub, ok := claims["sub"].(string)
			if !ok {
				writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "business id not found in token")
				return
			}
			businessID, err := uuid.Parse(sub)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "malformed business id in token")
				return
			}

			ctx := context.WithValue(r.Context(), businessIDContextKey, businessID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetBusinessID retrieves the JWT-authenticated business id from the context.
func GetBusinessID(ctx context.Context) (uuid.UUID, bool) {
	businessID, ok := ctx.Value(businessIDContextKey).(uuid.UUID)
	return businessID, ok
}
