package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	apiContext "hookgate/internal/api/context"
	"hookgate/internal/engine/events"
	"hookgate/internal/engine/signature"
	apiErrors "hookgate/internal/pkg/errors"
	"hookgate/internal/platform/audit"
	"hookgate/internal/platform/config"
	"hookgate/internal/platform/models"
	"hookgate/internal/platform/repositories"
)

// IngestHandler receives signed webhooks, verifies them against the
// endpoint's secret and stores the verified event.
type IngestHandler struct {
	endpoints  *repositories.EndpointRepository
	deliveries *repositories.DeliveryRepository
	rejections *repositories.RejectionRepository
	audit      *audit.Logger
	cfg        config.WebhooksConfig
}

func NewIngestHandler(
	endpoints *repositories.EndpointRepository,
	deliveries *repositories.DeliveryRepository,
	rejections *repositories.RejectionRepository,
	auditLogger *audit.Logger,
	cfg config.WebhooksConfig,
) *IngestHandler {
	return &IngestHandler{
		endpoints:  endpoints,
		deliveries: deliveries,
		rejections: rejections,
		audit:      auditLogger,
		cfg:        cfg,
	}
}

func (h *IngestHandler) Receive(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	slug := params.ByName("endpoint_slug")

	endpoint, err := h.endpoints.GetBySlug(slug)
	if err != nil || endpoint.Status != "active" {
		// Unknown and disabled endpoints look the same to senders.
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, "Unknown endpoint", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		apiErrors.WriteError(w, http.StatusRequestEntityTooLarge, apiErrors.ErrCodePayloadTooLarge, "Payload exceeds size limit", nil)
		return
	}

	sigHeader := r.Header.Get(h.cfg.SignatureHeader)

	opts := &signature.VerifyOptions{
		Tolerance: h.tolerance(endpoint),
		Scheme:    h.cfg.Scheme,
	}

	event, verifyErr := events.Construct(payload, sigHeader, endpoint.Secret, opts)
	if verifyErr != nil && endpoint.PreviousSecret != "" && isNoMatch(verifyErr) {
		// Rotation grace: the sender may still sign with the retired secret.
		event, verifyErr = events.Construct(payload, sigHeader, endpoint.PreviousSecret, opts)
	}

	if verifyErr != nil {
		h.reject(w, r, endpoint, sigHeader, verifyErr)
		return
	}

	delivery := &models.Delivery{
		EndpointID:   endpoint.ID,
		EventID:      event.ID,
		EventType:    event.Type,
		APIVersion:   event.APIVersion,
		EventCreated: event.Created,
		Payload:      event.LastResponse.Body,
		SigHeader:    sigHeader,
		SigTimestamp: signature.Timestamp(sigHeader),
	}

	if err := h.deliveries.Create(delivery); err != nil {
		log.Error().Err(err).Str("endpoint", endpoint.ID).Msg("failed to store delivery")
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to store event", nil)
		return
	}

	if err := h.endpoints.IncrementDelivered(endpoint.ID); err != nil {
		log.Error().Err(err).Str("endpoint", endpoint.ID).Msg("failed to bump delivered count")
	}

	log.Info().
		Str("endpoint", endpoint.ID).
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Msg("webhook accepted")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Received bool   `json:"received"`
		ID       string `json:"id"`
	}{Received: true, ID: delivery.ID})
}

func (h *IngestHandler) tolerance(endpoint *models.Endpoint) time.Duration {
	seconds := endpoint.ToleranceSeconds
	if seconds == models.UseDefaultTolerance {
		seconds = h.cfg.ToleranceSeconds
	}
	return time.Duration(seconds) * time.Second
}

func (h *IngestHandler) reject(w http.ResponseWriter, r *http.Request, endpoint *models.Endpoint, sigHeader string, verifyErr error) {
	reason, code, status := classify(verifyErr)

	if status != http.StatusInternalServerError {
		rejection := &models.Rejection{
			EndpointID: endpoint.ID,
			Reason:     reason,
			SigHeader:  sigHeader,
		}
		if err := h.rejections.Create(rejection); err != nil {
			log.Error().Err(err).Str("endpoint", endpoint.ID).Msg("failed to store rejection")
		}
		if err := h.endpoints.IncrementRejected(endpoint.ID); err != nil {
			log.Error().Err(err).Str("endpoint", endpoint.ID).Msg("failed to bump rejected count")
		}
		h.audit.Log(r.Context(), "webhook.rejected", "endpoint", endpoint.ID, map[string]interface{}{"reason": reason})
	}

	// Log the header for debugging; the secret never appears here.
	log.Warn().
		Str("endpoint", endpoint.ID).
		Str("reason", reason).
		Str("sig_header", sigHeader).
		Msg("webhook rejected")

	apiErrors.WriteError(w, status, code, "Webhook verification failed", map[string]string{"reason": reason})
}

func isNoMatch(err error) bool {
	var verr *signature.VerificationError
	return errors.As(err, &verr) && verr.Reason == signature.ReasonNoMatch
}

// classify maps a verification failure to a rejection reason, response
// code and HTTP status.
func classify(err error) (reason, code string, status int) {
	if errors.Is(err, events.ErrInvalidPayload) {
		return "invalid_payload", apiErrors.ErrCodeInvalidPayload, http.StatusBadRequest
	}

	var verr *signature.VerificationError
	if errors.As(err, &verr) {
		if verr.Reason == signature.ReasonComputationError {
			return string(verr.Reason), apiErrors.ErrCodeInternal, http.StatusInternalServerError
		}
		return string(verr.Reason), apiErrors.ErrCodeInvalidSignature, http.StatusBadRequest
	}

	return "internal_error", apiErrors.ErrCodeInternal, http.StatusInternalServerError
}
