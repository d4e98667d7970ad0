package signature

import (
	"strings"
	"testing"
	"time"
)

func TestCompute(t *testing.T) {
	// Calculated using: printf '%s' "payload" | openssl dgst -sha256 -hmac "secret"
	expected := "b82fcb791acec57859b989b430a826488ce2e479fdf92326bd0a2e8375a42ba4"

	got := Compute("secret", "payload")
	if got != expected {
		t.Errorf("Compute() = %v, want %v", got, expected)
	}
}

func TestComputeKnownSignedPayload(t *testing.T) {
	// printf '%s' '1614556800.{"id":"evt_1"}' | openssl dgst -sha256 -hmac 'whsec_test'
	expected := "e326b9127f526dab808bd39e79a44ab61b0dc0517386b06a7abf563ce203409b"

	got := Compute("whsec_test", `1614556800.{"id":"evt_1"}`)
	if got != expected {
		t.Errorf("Compute() = %v, want %v", got, expected)
	}
}

func TestComputeIsLowercaseHex(t *testing.T) {
	got := Compute("key", "message")
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(got))
	}
	if got != strings.ToLower(got) {
		t.Errorf("digest is not lowercase: %s", got)
	}
}

func TestSignRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1614556800, 0)

	header := Sign("whsec_test", now, payload)

	want := "t=1614556800,v1=e326b9127f526dab808bd39e79a44ab61b0dc0517386b06a7abf563ce203409b"
	if header != want {
		t.Errorf("Sign() = %v, want %v", header, want)
	}
}
