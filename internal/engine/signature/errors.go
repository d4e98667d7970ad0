package signature

// Reason identifies why verification failed. Every failure is terminal and
// non-retryable; a failed verification is a security signal, not a
// transient fault.
type Reason string

const (
	// ReasonMalformedHeader means the timestamp is missing, non-numeric or
	// not positive.
	ReasonMalformedHeader Reason = "malformed_header"

	// ReasonNoMatchingScheme means the header carries no signature for the
	// expected scheme tag.
	ReasonNoMatchingScheme Reason = "no_matching_scheme"

	// ReasonNoMatch means the computed signature matched none of the
	// candidates: wrong secret, tampered payload or wrong scheme version.
	ReasonNoMatch Reason = "no_match"

	// ReasonStaleTimestamp means the signed timestamp is older than the
	// tolerance window allows.
	ReasonStaleTimestamp Reason = "stale_timestamp"

	// ReasonComputationError is reserved for an unavailable HMAC primitive.
	// The Go runtime always provides HMAC-SHA256, so VerifyHeader never
	// returns it; callers mapping reasons to responses should still handle
	// it as an internal error rather than an authentication failure.
	ReasonComputationError Reason = "computation_error"
)

// VerificationError reports a failed verification. It carries the original
// header so rejections can be logged and debugged; it never carries the
// secret.
type VerificationError struct {
	Reason  Reason
	Header  string
	Message string
}

func (e *VerificationError) Error() string {
	return e.Message
}

func newError(reason Reason, header, message string) *VerificationError {
	return &VerificationError{Reason: reason, Header: header, Message: message}
}
