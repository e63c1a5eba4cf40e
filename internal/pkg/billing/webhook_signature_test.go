package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"event":"payment.updated","payment_id":42}`)
	secret := "whsec_test"

	if !VerifyWebhookSignature(payload, sign(payload, secret), secret) {
		t.Fatal("expected valid signature to verify")
	}
	if !VerifyWebhookSignature(payload, "  "+sign(payload, secret)+"  ", secret) {
		t.Fatal("expected trimmed signature to verify")
	}
	if VerifyWebhookSignature(payload, sign(payload, "other"), secret) {
		t.Fatal("expected signature from wrong secret to fail")
	}
	if VerifyWebhookSignature([]byte("tampered"), sign(payload, secret), secret) {
		t.Fatal("expected tampered payload to fail")
	}
	if VerifyWebhookSignature(payload, "", secret) {
		t.Fatal("expected empty signature to fail")
	}
	if VerifyWebhookSignature(payload, "zz-not-hex", secret) {
		t.Fatal("expected non-hex signature to fail")
	}
	if VerifyWebhookSignature(payload, sign(payload, secret), "") {
		t.Fatal("expected empty secret to fail")
	}
}
