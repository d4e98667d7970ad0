package models

// Endpoint is a registered webhook receiver slot: one upstream sender, one
// shared secret. Ingest requests address it by slug.
type Endpoint struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`

	// Secret is the active signing secret. PreviousSecret stays valid for
	// the rotation grace window after a rotation, then is cleared by the
	// maintenance worker. Neither is ever serialized in API responses; the
	// raw secret is returned exactly once, at create or rotate time.
	Secret          string `json:"-"`
	PreviousSecret  string `json:"-"`
	SecretRotatedAt *int64 `json:"secret_rotated_at,omitempty"`

	// ToleranceSeconds overrides the configured default freshness window.
	// -1 means use the default; 0 disables the check for this endpoint.
	ToleranceSeconds int64 `json:"tolerance_seconds"`

	Status         string `json:"status"` // active, disabled
	DeliveredCount int64  `json:"delivered_count"`
	RejectedCount  int64  `json:"rejected_count"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

// UseDefaultTolerance is the ToleranceSeconds value meaning "inherit the
// configured default".
const UseDefaultTolerance int64 = -1
