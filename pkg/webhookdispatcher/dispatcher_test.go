package webhookdispatcher

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDeliverSignsPayloadOverExactBody(t *testing.T) {
	var gotSignature string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := New(5 * time.Second)
	result := d.Deliver(server.URL, "merchant-secret", "order.created", map[string]string{"order_id": "abc"})

	if !result.Sent || result.StatusCode != http.StatusOK {
		t.Fatalf("expected successful delivery, got %+v", result)
	}

	mac := hmac.New(sha256.New, []byte("merchant-secret"))
	mac.Write(gotBody)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSignature != expected {
		t.Fatalf("signature must cover the exact body: got %q want %q", gotSignature, expected)
	}

	var envelope Event
	if err := json.Unmarshal(gotBody, &envelope); err != nil {
		t.Fatalf("body is not a valid event envelope: %v", err)
	}
	if envelope.Event != "order.created" {
		t.Fatalf("expected event name in envelope, got %q", envelope.Event)
	}
	if envelope.Timestamp.IsZero() {
		t.Fatal("expected a timestamp in the envelope")
	}
}

func TestDeliverTreatsNon2xxAsNotSent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := New(5 * time.Second)
	result := d.Deliver(server.URL, "secret", "order.failed", nil)

	if result.Sent {
		t.Fatal("a 500 response is not a delivery")
	}
	if result.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500 recorded, got %d", result.StatusCode)
	}
	if result.Err != nil {
		t.Fatalf("an HTTP-level rejection is not a transport error: %v", result.Err)
	}
}

func TestDeliverFoldsTransportErrorsIntoResult(t *testing.T) {
	d := New(time.Second)
	result := d.Deliver("http://127.0.0.1:1/unreachable", "secret", "order.created", nil)

	if result.Sent {
		t.Fatal("an unreachable endpoint must not count as sent")
	}
	if result.Err == nil {
		t.Fatal("expected the transport error in the result")
	}
}

func TestDeliverMakesExactlyOneAttempt(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := New(5 * time.Second)
	d.Deliver(server.URL, "secret", "order.completed", nil)

	if attempts != 1 {
		t.Fatalf("expected exactly one attempt, got %d", attempts)
	}
}

func TestSignFormat(t *testing.T) {
	sig := Sign("secret", []byte("payload"))
	if !strings.HasPrefix(sig, "sha256=") {
		t.Fatalf("expected sha256= prefix, got %q", sig)
	}
	if len(sig) != len("sha256=")+64 {
		t.Fatalf("expected 64 hex chars, got %d", len(sig)-len("sha256="))
	}
}
