/**
 * @description
 * This package delivers signed webhook notifications to merchant callback URLs.
 * Payloads are `{event, timestamp, data}` signed with HMAC-SHA256 of the exact
 * JSON body under the merchant-specific secret (a key space distinct from the
 * inbound liquidity-webhook secret).
 *
 * @notes
 * - Exactly one delivery attempt is made per call. Retry policy is a caller
 *   concern; callers record the outcome on the order's webhook bookkeeping.
 * - Deliver never lets an error escape as a panic or a returned error: every
 *   failure mode is folded into the Result.
 */
package webhookdispatcher

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// SignatureHeader carries the hex HMAC of the payload body.
const SignatureHeader = "X-Webhook-Signature"

// Event is the envelope posted to merchant webhook URLs.
type Event struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Result is the outcome of a single delivery attempt.
type Result struct {
	Sent       bool
	StatusCode int
	Err        error
}

// Dispatcher posts signed events to merchant endpoints.
type Dispatcher struct {
	httpClient *http.Client
}

// New creates a dispatcher with a bounded per-delivery timeout.
func New(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Deliver signs and posts one event to the given URL. It makes exactly one
// attempt and folds every failure into the returned Result.
func (d *Dispatcher) Deliver(url, secret, event string, data any) Result {
	payload, err := json.Marshal(Event{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return Result{Err: err}
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(payload))
	if err != nil {
		return Result{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(secret, payload))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	sent := resp.StatusCode >= 200 && resp.StatusCode < 300
	return Result{Sent: sent, StatusCode: resp.StatusCode}
}

// Sign computes the signature header value for a payload:
// "sha256=" + hex(HMAC-SHA256(secret, payload)).
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
