package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"hookgate/internal/engine/signature"
)

// ErrInvalidPayload is returned when the payload is not valid JSON for the
// event shape. It is distinct from signature failures: the payload is
// decoded before the signature is checked, so a body that is both malformed
// and badly signed reports the JSON error.
var ErrInvalidPayload = errors.New("webhook payload is not valid JSON")

// Construct decodes payload into an Event after verifying sigHeader against
// secret. On success the returned event carries a synthesized raw response
// holding the original payload byte-for-byte.
//
// Errors are either ErrInvalidPayload (wrapped, with the decode failure) or
// a *signature.VerificationError.
func Construct(payload []byte, sigHeader, secret string, opts *signature.VerifyOptions) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := signature.VerifyHeader(payload, sigHeader, secret, opts); err != nil {
		return nil, err
	}

	if event.LastResponse == nil {
		event.LastResponse = &RawResponse{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       string(payload),
		}
	}

	return &event, nil
}
