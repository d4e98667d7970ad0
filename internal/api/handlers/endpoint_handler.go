package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "hookgate/internal/api/context"
	"hookgate/internal/pkg/errors"
	"hookgate/internal/platform/audit"
	"hookgate/internal/platform/models"
	"hookgate/internal/platform/repositories"
)

type EndpointHandler struct {
	endpoints *repositories.EndpointRepository
	audit     *audit.Logger
}

func NewEndpointHandler(endpoints *repositories.EndpointRepository, auditLogger *audit.Logger) *EndpointHandler {
	return &EndpointHandler{endpoints: endpoints, audit: auditLogger}
}

// newSecret generates an endpoint signing secret. The whsec_ prefix marks
// the value as a webhook secret in logs and dashboards.
func newSecret() string {
	bytes := make([]byte, 24)
	rand.Read(bytes)
	return "whsec_" + hex.EncodeToString(bytes)
}

type endpointWithSecret struct {
	*models.Endpoint
	Secret string `json:"secret"`
}

func (h *EndpointHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slug             string `json:"slug"`
		Name             string `json:"name"`
		ToleranceSeconds *int64 `json:"tolerance_seconds"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Slug == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "slug is required", nil)
		return
	}

	endpoint := &models.Endpoint{
		Slug:             req.Slug,
		Name:             req.Name,
		Secret:           newSecret(),
		ToleranceSeconds: models.UseDefaultTolerance,
	}
	if req.ToleranceSeconds != nil {
		if *req.ToleranceSeconds < 0 {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "tolerance_seconds must be non-negative", nil)
			return
		}
		endpoint.ToleranceSeconds = *req.ToleranceSeconds
	}

	if err := h.endpoints.Create(endpoint); err != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, err.Error(), nil)
		return
	}

	h.audit.Log(r.Context(), "endpoint.created", "endpoint", endpoint.ID, map[string]interface{}{"slug": endpoint.Slug})

	// The raw secret is returned only here.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(endpointWithSecret{Endpoint: endpoint, Secret: endpoint.Secret})
}

func (h *EndpointHandler) List(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.endpoints.List()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoints)
}

func (h *EndpointHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("endpoint_id")

	endpoint, err := h.endpoints.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Endpoint not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoint)
}

func (h *EndpointHandler) Update(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("endpoint_id")

	var req struct {
		Name             *string `json:"name"`
		ToleranceSeconds *int64  `json:"tolerance_seconds"`
		Status           *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	endpoint, err := h.endpoints.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Endpoint not found", nil)
		return
	}

	if req.Name != nil {
		endpoint.Name = *req.Name
	}
	if req.ToleranceSeconds != nil {
		// 0 disables the freshness check, -1 inherits the configured
		// default; anything else negative is a caller mistake.
		if *req.ToleranceSeconds < 0 && *req.ToleranceSeconds != models.UseDefaultTolerance {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "tolerance_seconds must be non-negative, or -1 to inherit the default", nil)
			return
		}
		endpoint.ToleranceSeconds = *req.ToleranceSeconds
	}
	if req.Status != nil {
		if *req.Status != "active" && *req.Status != "disabled" {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "status must be active or disabled", nil)
			return
		}
		endpoint.Status = *req.Status
	}

	if err := h.endpoints.Update(endpoint); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	h.audit.Log(r.Context(), "endpoint.updated", "endpoint", endpoint.ID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoint)
}

func (h *EndpointHandler) Delete(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("endpoint_id")

	if err := h.endpoints.Delete(id); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	h.audit.Log(r.Context(), "endpoint.deleted", "endpoint", id, nil)

	w.WriteHeader(http.StatusOK)
}

// RotateSecret issues a fresh secret. The previous one keeps verifying
// until the rotation grace window expires, so senders can switch over
// without dropping deliveries.
func (h *EndpointHandler) RotateSecret(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("endpoint_id")

	endpoint, err := h.endpoints.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Endpoint not found", nil)
		return
	}

	secret := newSecret()
	if err := h.endpoints.RotateSecret(endpoint.ID, secret); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	h.audit.Log(r.Context(), "endpoint.secret_rotated", "endpoint", endpoint.ID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		ID     string `json:"id"`
		Secret string `json:"secret"`
	}{ID: endpoint.ID, Secret: secret})
}
