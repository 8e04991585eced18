package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/heroes/pkg/metrics"
)

// Counter reports how many heroes are stored.
type Counter interface {
	Count(ctx context.Context) int
}

// HealthHandler handles health check and metrics requests.
type HealthHandler struct {
	store   Counter
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store Counter) *HealthHandler {
	return &HealthHandler{
		store:   store,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Heroes int    `json:"heroes"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Heroes: h.store.Count(r.Context())})
}

// HandleMetrics serves the Prometheus registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
