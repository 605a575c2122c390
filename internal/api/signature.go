/**
 * @description
 * This file verifies the HMAC signature attached to inbound liquidity-server
 * webhooks. The signature is an HMAC-SHA256 over the exact raw request body,
 * hex-encoded and prefixed with "sha256=", carried in X-Webhook-Signature.
 *
 * @dependencies
 * - crypto/hmac, crypto/sha256, encoding/hex: Standard Go libraries.
 */

package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// WebhookSignatureHeader carries the inbound webhook signature.
const WebhookSignatureHeader = "X-Webhook-Signature"

const signaturePrefix = "sha256="

// VerifyWebhookSignature checks a "sha256=<hex>" header value against the raw
// body using the shared secret. Comparison is constant-time. An empty secret
// always fails: an unconfigured deployment must reject, not accept, deliveries.
func VerifyWebhookSignature(secret string, body []byte, header string) bool {
	if secret == "" {
		return false
	}
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
