package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	apiContext "hookgate/internal/api/context"
	"hookgate/internal/pkg/errors"
	"hookgate/internal/platform/repositories"
)

// DeliveryHandler exposes stored deliveries and rejections for inspection.
type DeliveryHandler struct {
	deliveries *repositories.DeliveryRepository
	rejections *repositories.RejectionRepository
}

func NewDeliveryHandler(deliveries *repositories.DeliveryRepository, rejections *repositories.RejectionRepository) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries, rejections: rejections}
}

func paging(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func (h *DeliveryHandler) ListByEndpoint(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	endpointID := params.ByName("endpoint_id")
	limit, offset := paging(r)

	deliveries, err := h.deliveries.ListByEndpoint(endpointID, limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deliveries)
}

func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("delivery_id")

	delivery, err := h.deliveries.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Delivery not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(delivery)
}

// GetPayload returns the stored payload verbatim, for replaying into a
// downstream consumer.
func (h *DeliveryHandler) GetPayload(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("delivery_id")

	delivery, err := h.deliveries.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Delivery not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(delivery.Payload))
}

func (h *DeliveryHandler) ListRejections(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	endpointID := params.ByName("endpoint_id")
	limit, offset := paging(r)

	rejections, err := h.rejections.ListByEndpoint(endpointID, limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rejections)
}
