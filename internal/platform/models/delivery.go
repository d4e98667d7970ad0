package models

// Delivery is a webhook request that passed signature verification. The
// payload is stored exactly as received.
type Delivery struct {
	ID           string `json:"id"`
	EndpointID   string `json:"endpoint_id"`
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	APIVersion   string `json:"api_version,omitempty"`
	EventCreated int64  `json:"event_created"`
	Payload      string `json:"payload"`
	SigHeader    string `json:"sig_header"`
	SigTimestamp int64  `json:"sig_timestamp"`
	ReceivedAt   int64  `json:"received_at"`
}

// Rejection records a webhook request that failed verification, with the
// failure reason and the offending header for debugging. The secret is
// never stored here.
type Rejection struct {
	ID         string `json:"id"`
	EndpointID string `json:"endpoint_id"`
	Reason     string `json:"reason"`
	SigHeader  string `json:"sig_header"`
	ReceivedAt int64  `json:"received_at"`
}
