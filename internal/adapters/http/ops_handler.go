package http

import (
	"encoding/json"
	"net/http"

	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/ports"
)

const contentTypeJSON = "application/json"

// OpsHandler serves the probe endpoints of the ops server.
type OpsHandler struct {
	healthChecker ports.HealthChecker
	logger        *infrastructure.Logger
}

func NewOpsHandler(healthChecker ports.HealthChecker, logger *infrastructure.Logger) *OpsHandler {
	return &OpsHandler{
		healthChecker: healthChecker,
		logger:        logger,
	}
}

func (h *OpsHandler) Health(w http.ResponseWriter, r *http.Request) {
	result := h.healthChecker.CheckHealth(r.Context())

	statusCode := http.StatusOK
	if !result.IsHealthy() {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, result)
}

func (h *OpsHandler) Ready(w http.ResponseWriter, r *http.Request) {
	result := h.healthChecker.CheckReadiness(r.Context())

	statusCode := http.StatusOK
	if !result.IsReady() {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, result)
}

func (h *OpsHandler) Live(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *OpsHandler) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to write response")
	}
}
