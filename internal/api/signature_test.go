package api

import "testing"

func TestVerifyWebhookSignatureAcceptsValidSignature(t *testing.T) {
	body := []byte(`{"orderId":"abc","status":"completed"}`)
	header := signBody("topsecret", body)

	if !VerifyWebhookSignature("topsecret", body, header) {
		t.Fatal("expected a valid signature to verify")
	}
}

func TestVerifyWebhookSignatureRejectsTamperedBody(t *testing.T) {
	body := []byte(`{"orderId":"abc","status":"completed"}`)
	header := signBody("topsecret", body)

	tampered := []byte(`{"orderId":"abc","status":"failed"}`)
	if VerifyWebhookSignature("topsecret", tampered, header) {
		t.Fatal("a signature over a different body must not verify")
	}
}

func TestVerifyWebhookSignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`payload`)
	header := signBody("other-secret", body)

	if VerifyWebhookSignature("topsecret", body, header) {
		t.Fatal("a signature from the wrong secret must not verify")
	}
}

func TestVerifyWebhookSignatureRejectsMalformedHeader(t *testing.T) {
	body := []byte(`payload`)

	for _, header := range []string{"", "deadbeef", "sha256=", "sha256=zz", "sha1=deadbeef"} {
		if VerifyWebhookSignature("topsecret", body, header) {
			t.Fatalf("malformed header %q must not verify", header)
		}
	}
}

func TestVerifyWebhookSignatureRejectsEmptySecret(t *testing.T) {
	body := []byte(`payload`)
	header := signBody("", body)

	if VerifyWebhookSignature("", body, header) {
		t.Fatal("an unconfigured secret must reject all deliveries")
	}
}
