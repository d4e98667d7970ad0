package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Compute returns the lowercase hex HMAC-SHA256 of message keyed with secret.
// This is the "v1" scheme. It is pure: the same inputs always produce the
// same digest.
func Compute(secret, message string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// signedPayload builds the canonical message: the decimal timestamp, a
// literal dot, then the raw payload bytes exactly as received. The payload
// must not be re-encoded before signing or verifying.
func signedPayload(timestamp int64, payload []byte) string {
	return fmt.Sprintf("%d.%s", timestamp, payload)
}

// Sign produces a complete signature header for payload, signed at ts.
// It is the inverse of VerifyHeader and is used by tests and tooling that
// need to emit headers this package will accept.
func Sign(secret string, ts time.Time, payload []byte) string {
	t := ts.Unix()
	sig := Compute(secret, signedPayload(t, payload))
	return fmt.Sprintf("t=%d,%s=%s", t, DefaultScheme, sig)
}
