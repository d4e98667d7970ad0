package events

import (
	"encoding/json"
	"net/http"
)

// Event is the structured form of a verified webhook payload.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	APIVersion string    `json:"api_version,omitempty"`
	Created    int64     `json:"created"`
	Account    string    `json:"account,omitempty"`
	Data       EventData `json:"data"`

	// LastResponse carries the raw payload the event was built from.
	// Events received over a webhook never came from an API round trip, so
	// Construct synthesizes this record to keep downstream code that reads
	// the originating raw body working.
	LastResponse *RawResponse `json:"-"`
}

// EventData holds the event's object as raw JSON. The object shape varies
// per event type, so it is left to the caller to decode.
type EventData struct {
	Object             json.RawMessage `json:"object"`
	PreviousAttributes json.RawMessage `json:"previous_attributes,omitempty"`
}

// RawResponse mirrors the response record an API-fetched object would
// carry: for webhook events the status is always 200, the header set empty
// and the body the unmodified payload.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       string
}
