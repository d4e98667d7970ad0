package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	_ "github.com/mattn/go-sqlite3"
	apiContext "hookgate/internal/api/context"
	"hookgate/internal/engine/signature"
	"hookgate/internal/platform/audit"
	"hookgate/internal/platform/config"
	"hookgate/internal/platform/models"
	"hookgate/internal/platform/repositories"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE endpoints (
		id TEXT PRIMARY KEY,
		slug TEXT UNIQUE NOT NULL,
		name TEXT,
		secret TEXT NOT NULL,
		previous_secret TEXT,
		secret_rotated_at INTEGER,
		tolerance_seconds INTEGER NOT NULL DEFAULT -1,
		status TEXT NOT NULL DEFAULT 'active',
		delivered_count INTEGER NOT NULL DEFAULT 0,
		rejected_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE deliveries (
		id TEXT PRIMARY KEY,
		endpoint_id TEXT NOT NULL,
		event_id TEXT,
		event_type TEXT,
		api_version TEXT,
		event_created INTEGER,
		payload TEXT NOT NULL,
		sig_header TEXT NOT NULL,
		sig_timestamp INTEGER,
		received_at INTEGER NOT NULL
	);
	CREATE TABLE rejections (
		id TEXT PRIMARY KEY,
		endpoint_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		sig_header TEXT,
		received_at INTEGER NOT NULL
	);
	CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		action TEXT NOT NULL,
		resource_type TEXT,
		resource_id TEXT,
		metadata TEXT,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func testWebhooksConfig() config.WebhooksConfig {
	return config.WebhooksConfig{
		ToleranceSeconds: 300,
		Scheme:           "v1",
		SignatureHeader:  "Hookgate-Signature",
		MaxBodyBytes:     1 << 20,
	}
}

func newIngestFixture(t *testing.T) (*IngestHandler, *repositories.EndpointRepository, *repositories.DeliveryRepository, *repositories.RejectionRepository) {
	db := setupTestDB(t)
	endpoints := repositories.NewEndpointRepository(db)
	deliveries := repositories.NewDeliveryRepository(db)
	rejections := repositories.NewRejectionRepository(db)
	handler := NewIngestHandler(endpoints, deliveries, rejections, audit.NewLogger(db), testWebhooksConfig())
	return handler, endpoints, deliveries, rejections
}

func ingestRequest(slug string, payload []byte, sigHeader string) *http.Request {
	req := httptest.NewRequest("POST", "/ingest/"+slug, bytes.NewReader(payload))
	if sigHeader != "" {
		req.Header.Set("Hookgate-Signature", sigHeader)
	}
	params := httprouter.Params{{Key: "endpoint_slug", Value: slug}}
	ctx := context.WithValue(req.Context(), apiContext.Params, params)
	return req.WithContext(ctx)
}

func TestIngestAccepted(t *testing.T) {
	handler, endpoints, _, _ := newIngestFixture(t)

	endpoint := &models.Endpoint{Slug: "billing", Name: "Billing", Secret: "whsec_billing", ToleranceSeconds: models.UseDefaultTolerance}
	if err := endpoints.Create(endpoint); err != nil {
		t.Fatalf("Failed to create endpoint: %v", err)
	}

	payload := []byte(`{"id":"evt_1","type":"invoice.paid","created":1700000000,"data":{"object":{"id":"in_1"}}}`)
	header := signature.Sign("whsec_billing", time.Now(), payload)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("billing", payload, header))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Received bool   `json:"received"`
		ID       string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !resp.Received || resp.ID == "" {
		t.Errorf("unexpected response: %+v", resp)
	}

	stored, err := endpoints.GetBySlug("billing")
	if err != nil {
		t.Fatalf("Failed to reload endpoint: %v", err)
	}
	if stored.DeliveredCount != 1 {
		t.Errorf("DeliveredCount = %d, want 1", stored.DeliveredCount)
	}
}

func TestIngestStoresRawPayload(t *testing.T) {
	handler, endpoints, deliveries, _ := newIngestFixture(t)

	endpoint := &models.Endpoint{Slug: "billing", Secret: "whsec_billing", ToleranceSeconds: models.UseDefaultTolerance}
	endpoints.Create(endpoint)

	// Whitespace and key order must survive storage untouched.
	payload := []byte(`{ "id":"evt_raw",  "type":"charge.failed" }`)
	header := signature.Sign("whsec_billing", time.Now(), payload)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("billing", payload, header))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	list, err := deliveries.ListByEndpoint(endpoint.ID, 10, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one delivery, got %d (err %v)", len(list), err)
	}
	if list[0].Payload != string(payload) {
		t.Errorf("stored payload = %q, want %q", list[0].Payload, payload)
	}
}

func TestIngestTamperedPayloadRejected(t *testing.T) {
	handler, endpoints, _, rejections := newIngestFixture(t)

	endpoint := &models.Endpoint{Slug: "billing", Secret: "whsec_billing", ToleranceSeconds: models.UseDefaultTolerance}
	endpoints.Create(endpoint)

	payload := []byte(`{"id":"evt_1"}`)
	header := signature.Sign("whsec_billing", time.Now(), payload)
	tampered := []byte(`{"id":"evt_2"}`)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("billing", tampered, header))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("no_match")) {
		t.Errorf("expected no_match reason in body: %s", rr.Body.String())
	}

	list, err := rejections.ListByEndpoint(endpoint.ID, 10, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one rejection, got %d (err %v)", len(list), err)
	}
	if list[0].Reason != "no_match" {
		t.Errorf("rejection reason = %s, want no_match", list[0].Reason)
	}
}

func TestIngestStaleTimestampRejected(t *testing.T) {
	handler, endpoints, _, _ := newIngestFixture(t)

	endpoint := &models.Endpoint{Slug: "billing", Secret: "whsec_billing", ToleranceSeconds: models.UseDefaultTolerance}
	endpoints.Create(endpoint)

	payload := []byte(`{"id":"evt_1"}`)
	header := signature.Sign("whsec_billing", time.Now().Add(-10*time.Minute), payload)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("billing", payload, header))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("stale_timestamp")) {
		t.Errorf("expected stale_timestamp reason in body: %s", rr.Body.String())
	}
}

func TestIngestToleranceDisabledPerEndpoint(t *testing.T) {
	handler, endpoints, _, _ := newIngestFixture(t)

	// ToleranceSeconds 0 turns the freshness check off for this endpoint.
	endpoint := &models.Endpoint{Slug: "archive", Secret: "whsec_archive", ToleranceSeconds: 0}
	endpoints.Create(endpoint)

	payload := []byte(`{"id":"evt_old"}`)
	header := signature.Sign("whsec_archive", time.Now().Add(-24*time.Hour), payload)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("archive", payload, header))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
}

func TestIngestInvalidJSONRejected(t *testing.T) {
	handler, endpoints, _, rejections := newIngestFixture(t)

	endpoint := &models.Endpoint{Slug: "billing", Secret: "whsec_billing", ToleranceSeconds: models.UseDefaultTolerance}
	endpoints.Create(endpoint)

	// Malformed JSON is reported ahead of the (also bad) signature.
	payload := []byte(`{"id":`)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("billing", payload, "t=1,v1=bogus"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("INVALID_PAYLOAD")) {
		t.Errorf("expected INVALID_PAYLOAD code in body: %s", rr.Body.String())
	}

	list, _ := rejections.ListByEndpoint(endpoint.ID, 10, 0)
	if len(list) != 1 || list[0].Reason != "invalid_payload" {
		t.Errorf("expected invalid_payload rejection, got %+v", list)
	}
}

func TestIngestRotationGraceFallback(t *testing.T) {
	handler, endpoints, _, _ := newIngestFixture(t)

	endpoint := &models.Endpoint{Slug: "billing", Secret: "whsec_old", ToleranceSeconds: models.UseDefaultTolerance}
	endpoints.Create(endpoint)

	if err := endpoints.RotateSecret(endpoint.ID, "whsec_new"); err != nil {
		t.Fatalf("Failed to rotate secret: %v", err)
	}

	// Sender still signs with the retired secret during the grace window.
	payload := []byte(`{"id":"evt_grace"}`)
	header := signature.Sign("whsec_old", time.Now(), payload)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("billing", payload, header))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
}

func TestIngestUnknownEndpoint(t *testing.T) {
	handler, _, _, _ := newIngestFixture(t)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("ghost", []byte(`{}`), "t=1,v1=abc"))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestIngestDisabledEndpoint(t *testing.T) {
	handler, endpoints, _, _ := newIngestFixture(t)

	endpoint := &models.Endpoint{Slug: "paused", Secret: "whsec_paused", Status: "disabled", ToleranceSeconds: models.UseDefaultTolerance}
	endpoints.Create(endpoint)

	payload := []byte(`{"id":"evt_1"}`)
	header := signature.Sign("whsec_paused", time.Now(), payload)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("paused", payload, header))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestIngestMissingSignatureHeader(t *testing.T) {
	handler, endpoints, _, rejections := newIngestFixture(t)

	endpoint := &models.Endpoint{Slug: "billing", Secret: "whsec_billing", ToleranceSeconds: models.UseDefaultTolerance}
	endpoints.Create(endpoint)

	rr := httptest.NewRecorder()
	handler.Receive(rr, ingestRequest("billing", []byte(`{"id":"evt_1"}`), ""))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	list, _ := rejections.ListByEndpoint(endpoint.ID, 10, 0)
	if len(list) != 1 || list[0].Reason != "malformed_header" {
		t.Errorf("expected malformed_header rejection, got %+v", list)
	}
}
