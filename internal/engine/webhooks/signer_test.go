package webhooks

import (
	"testing"
)

func TestSign(t *testing.T) {
	envelope := &Envelope{
		Event:     "message.sent",
		Timestamp: 1700000000,
		Data:      map[string]string{"id": "msg_1"},
	}
	payload, err := envelope.Canonical()
	if err != nil {
		t.Fatalf("Canonical() error: %v", err)
	}

	// Calculated using: echo -n "1700000000.<payload>" | openssl dgst -sha256 -hmac "whsec_test"
	expected := "676299d39a57ce1aacb572c3b9da2407488ad4a845ba10075b79f1f9680671b9"

	got := Sign("whsec_test", 1700000000, payload)
	if got != expected {
		t.Errorf("Sign() = %v, want %v", got, expected)
	}
}

func TestCanonicalIsStable(t *testing.T) {
	envelope := &Envelope{
		Event:     "contact.updated",
		Timestamp: 1700000000,
		Data:      map[string]interface{}{"b": 2, "a": 1, "c": 3},
	}

	first, err := envelope.Canonical()
	if err != nil {
		t.Fatalf("Canonical() error: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := envelope.Canonical()
		if err != nil {
			t.Fatalf("Canonical() error: %v", err)
		}
		if string(next) != string(first) {
			t.Fatalf("Canonical() not stable: %s vs %s", next, first)
		}
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_abc123"
	payload := []byte(`{"event":"message.received","timestamp":1700000000,"data":{}}`)
	header := SignatureHeader(secret, 1700000000, payload)

	if !VerifySignature(secret, header, payload) {
		t.Error("valid signature did not verify")
	}

	// Tampered payload must fail.
	tampered := []byte(`{"event":"message.received","timestamp":1700000000,"data":{"x":1}}`)
	if VerifySignature(secret, header, tampered) {
		t.Error("tampered payload verified")
	}

	// After a secret rotation, old signatures are invalid.
	if VerifySignature("whsec_rotated", header, payload) {
		t.Error("signature verified with rotated secret")
	}
}

func TestVerifySignatureMalformedHeader(t *testing.T) {
	payload := []byte("{}")
	for _, header := range []string{"", "nocomma", "notanumber,abcdef", "1700000000"} {
		if VerifySignature("secret", header, payload) {
			t.Errorf("malformed header %q verified", header)
		}
	}
}
