package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services/footprint"
	"github.com/upb/llm-footprint/services/smartroute"
	"github.com/upb/llm-footprint/utils"
	"go.uber.org/zap"
)

// AnalyzeRequest is the body of POST /api/v1/route/analyze
type AnalyzeRequest struct {
	Prompt      string             `json:"prompt" validate:"required"`
	Preferences models.Preferences `json:"preferences"`
}

// ExecuteRequest is the body of POST /api/v1/route/execute
type ExecuteRequest struct {
	Prompt        string `json:"prompt" validate:"required"`
	SelectedModel string `json:"selectedModel" validate:"required"`
	Complexity    string `json:"complexity,omitempty"`
	Reasoning     string `json:"reasoning,omitempty"`
	Region        string `json:"region,omitempty" validate:"omitempty,max=100"`
}

// ExecuteResponse is the routed result with its classification
type ExecuteResponse struct {
	ResultResponse
	Complexity string `json:"complexity,omitempty"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// RouteService runs smart routing
type RouteService interface {
	Analyze(ctx context.Context, prompt string, prefs models.Preferences) (*smartroute.Analysis, error)
	Execute(ctx context.Context, prompt string, selectedModel string, classification models.ComplexityClassification) (*smartroute.Execution, error)
}

// RouteHandler handles the smart routing mode
type RouteHandler struct {
	service   RouteService
	estimator *footprint.Estimator
	logger    *zap.Logger
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(service RouteService, estimator *footprint.Estimator, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		service:   service,
		estimator: estimator,
		logger:    logger,
	}
}

// HandleAnalyze handles POST /api/v1/route/analyze
func (h *RouteHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, "Prompt is required", err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, "Prompt is required", err, h.logger)
		return
	}

	analysis, err := h.service.Analyze(r.Context(), req.Prompt, req.Preferences)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, analysis); err != nil {
		h.logger.Error("failed to write analyze response", zap.Error(err))
	}
}

// HandleExecute handles POST /api/v1/route/execute
func (h *RouteHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	const message = "Prompt and selectedModel are required"

	var req ExecuteRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, message, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, message, err, h.logger)
		return
	}

	region, err := h.estimator.Region(regionFor(r, req.Region))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	// complexity and reasoning echo the analyze answer; an unknown label is dropped
	classification := models.ComplexityClassification{Rationale: strings.TrimSpace(req.Reasoning)}
	if req.Complexity != "" {
		classification.Label, _ = models.ParseComplexity(req.Complexity)
	}

	exec, err := h.service.Execute(r.Context(), req.Prompt, req.SelectedModel, classification)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	response := ExecuteResponse{
		ResultResponse: renderResult(h.estimator, exec.Result, region),
		Reasoning:      exec.Classification.Rationale,
	}
	if exec.Classification.Label.Valid() {
		response.Complexity = exec.Classification.Label.String()
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write execute response", zap.Error(err))
	}
}
