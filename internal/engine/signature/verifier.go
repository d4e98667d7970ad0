package signature

import (
	"crypto/hmac"
	"fmt"
	"time"
)

const (
	// DefaultTolerance is the maximum accepted age of a signed timestamp
	// when the caller does not override it.
	DefaultTolerance = 300 * time.Second

	// DefaultScheme is the signature scheme tag verified by default.
	DefaultScheme = "v1"
)

// VerifyOptions configures a verification call. The zero value of each
// field selects a documented default when opts is nil; when a non-nil opts
// is supplied, Tolerance is used as given and a Tolerance of 0 disables the
// freshness check entirely.
type VerifyOptions struct {
	// Tolerance is the maximum accepted age of the signed timestamp.
	// 0 disables the check.
	Tolerance time.Duration

	// Now supplies the current time, so tests can pin the clock.
	// Defaults to time.Now.
	Now func() time.Time

	// Scheme is the signature scheme tag to match. Defaults to "v1".
	Scheme string
}

func (o *VerifyOptions) withDefaults() VerifyOptions {
	out := VerifyOptions{Tolerance: DefaultTolerance, Now: time.Now, Scheme: DefaultScheme}
	if o == nil {
		return out
	}
	out.Tolerance = o.Tolerance
	if o.Now != nil {
		out.Now = o.Now
	}
	if o.Scheme != "" {
		out.Scheme = o.Scheme
	}
	return out
}

// VerifyHeader authenticates payload against sigHeader using secret. It
// returns nil on success and a *VerificationError on any failure.
//
// Checks run in order and short-circuit: timestamp extraction, scheme
// candidate extraction, constant-time comparison of the expected signature
// against every candidate (any match succeeds, which is what allows secret
// rotation via multiple scheme entries), then the tolerance window. Only a
// lower bound on freshness is enforced; a timestamp in the future is
// accepted.
//
// The call is stateless and safe for concurrent use.
func VerifyHeader(payload []byte, sigHeader, secret string, opts *VerifyOptions) error {
	o := opts.withDefaults()

	timestamp := Timestamp(sigHeader)
	if timestamp <= 0 {
		return newError(ReasonMalformedHeader, sigHeader,
			"unable to extract timestamp and signatures from header")
	}

	candidates := Signatures(sigHeader, o.Scheme)
	if len(candidates) == 0 {
		return newError(ReasonNoMatchingScheme, sigHeader,
			fmt.Sprintf("no signatures found with expected scheme %q", o.Scheme))
	}

	expected := Compute(secret, signedPayload(timestamp, payload))

	found := false
	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			found = true
			break
		}
	}
	if !found {
		return newError(ReasonNoMatch, sigHeader,
			"no signatures found matching the expected signature for payload")
	}

	if o.Tolerance > 0 {
		now := o.Now().Unix()
		if timestamp < now-int64(o.Tolerance/time.Second) {
			return newError(ReasonStaleTimestamp, sigHeader,
				"timestamp outside the tolerance zone")
		}
	}

	return nil
}
