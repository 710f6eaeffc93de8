package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Envelope is the canonical body delivered to subscribers. encoding/json
// emits struct fields in declaration order and sorts map keys, so marshalling
// the same envelope always yields the same bytes.
type Envelope struct {
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func (e *Envelope) Canonical() ([]byte, error) {
	return json.Marshal(e)
}

// Sign computes hex(HMAC-SHA256(secret, "<timestamp>.<payload>")).
func Sign(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SignatureHeader renders the X-Webhook-Signature value: "<timestamp>,<mac>".
func SignatureHeader(secret string, timestamp int64, payload []byte) string {
	return fmt.Sprintf("%d,%s", timestamp, Sign(secret, timestamp, payload))
}

// VerifySignature checks a received header against the payload. Receivers
// recompute the MAC with their copy of the secret; comparison is
// constant-time.
func VerifySignature(secret, header string, payload []byte) bool {
	parts := strings.SplitN(header, ",", 2)
	if len(parts) != 2 {
		return false
	}
	timestamp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}
	expected := Sign(secret, timestamp, payload)
	return hmac.Equal([]byte(expected), []byte(parts[1]))
}
