package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/llm-footprint/repositories"
	"github.com/upb/llm-footprint/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Credential reports whether an upstream API key is present
type Credential interface {
	Configured() bool
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db          repositories.HealthChecker
	credentials map[string]Credential
	logger      *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db is nil when no database is configured.
// credentials are reported by name but never fail readiness: a missing key fails the request instead.
func NewHealthHandler(db repositories.HealthChecker, credentials map[string]Credential, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		credentials: credentials,
		logger:      logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.db == nil {
		checks["database"] = "disabled"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	for name, cred := range h.credentials {
		if cred.Configured() {
			checks[name] = "configured"
		} else {
			checks[name] = "missing"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
