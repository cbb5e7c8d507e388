package http

import (
	"log"
	"net/http"
	"time"

	"github.com/shreyasmhade/QickServe/internal/dashboard"
)

type DashboardHandler struct {
	service *dashboard.Service
	timeout time.Duration
}

func NewDashboardHandler(service *dashboard.Service, timeout time.Duration) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		timeout: timeout,
	}
}

// GET /api/v1/dashboard/metrics
//
// Refreshes before answering so a read never returns stale counts; concurrent
// requests share one refresh.
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, h.timeout)
	defer cancel()

	summary, err := h.service.Refresh(ctx)
	if err != nil {
		log.Printf("[%s] failed to refresh dashboard: %v", getRequestID(ctx), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to compute metrics")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
