package handlers

import (
	"fmt"
	"net/http"

	"hookgate/internal/platform/repositories"
)

// MetricsHandler exports counters in Prometheus text format without
// pulling in the client library.
type MetricsHandler struct {
	deliveries *repositories.DeliveryRepository
	rejections *repositories.RejectionRepository
}

func NewMetricsHandler(deliveries *repositories.DeliveryRepository, rejections *repositories.RejectionRepository) *MetricsHandler {
	return &MetricsHandler{deliveries: deliveries, rejections: rejections}
}

func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	delivered, _ := h.deliveries.CountAll()
	rejected, _ := h.rejections.CountAll()

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "# HELP hookgate_up Is the server up\n")
	fmt.Fprintf(w, "# TYPE hookgate_up gauge\n")
	fmt.Fprintf(w, "hookgate_up 1\n")
	fmt.Fprintf(w, "# HELP hookgate_deliveries_total Webhooks accepted after verification\n")
	fmt.Fprintf(w, "# TYPE hookgate_deliveries_total counter\n")
	fmt.Fprintf(w, "hookgate_deliveries_total %d\n", delivered)
	fmt.Fprintf(w, "# HELP hookgate_rejections_total Webhooks rejected by verification\n")
	fmt.Fprintf(w, "# TYPE hookgate_rejections_total counter\n")
	fmt.Fprintf(w, "hookgate_rejections_total %d\n", rejected)
}
