package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/llm-footprint/middleware"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services/compare"
	"github.com/upb/llm-footprint/services/footprint"
	"github.com/upb/llm-footprint/utils"
	"go.uber.org/zap"
)

// DefaultBatchTimeout guards a whole comparison batch
const DefaultBatchTimeout = 60 * time.Second

// CompareRequest is the body of POST /api/v1/compare
type CompareRequest struct {
	Prompt string `json:"prompt" validate:"required"`
	Region string `json:"region,omitempty" validate:"omitempty,max=100"`
}

// ResultResponse is one provider outcome as rendered to clients
type ResultResponse struct {
	Model         string `json:"model"`
	ModelName     string `json:"modelName"`
	Response      string `json:"response"`
	InputTokens   int    `json:"inputTokens"`
	OutputTokens  int    `json:"outputTokens"`
	ResponseTime  int64  `json:"responseTime"`
	LatencyStatus string `json:"latencyStatus"`
	footprint.Footprint
}

// CompareService runs comparison batches
type CompareService interface {
	Compare(ctx context.Context, prompt string, ids []models.ProviderID) ([]models.ProviderResult, error)
}

// CompareHandler handles the comparison mode
type CompareHandler struct {
	service      CompareService
	estimator    *footprint.Estimator
	batchTimeout time.Duration
	logger       *zap.Logger
}

// NewCompareHandler creates a new CompareHandler
func NewCompareHandler(service CompareService, estimator *footprint.Estimator, batchTimeout time.Duration, logger *zap.Logger) *CompareHandler {
	if batchTimeout <= 0 {
		batchTimeout = DefaultBatchTimeout
	}
	return &CompareHandler{
		service:      service,
		estimator:    estimator,
		batchTimeout: batchTimeout,
		logger:       logger,
	}
}

// HandleCompare handles POST /api/v1/compare
func (h *CompareHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, "Prompt is required", err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, "Prompt is required", err, h.logger)
		return
	}

	region, err := h.estimator.Region(regionFor(r, req.Region))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.batchTimeout)
	defer cancel()

	results, err := h.service.Compare(ctx, req.Prompt, nil)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	ranked := compare.Rank(results)
	response := make([]ResultResponse, 0, len(ranked))
	for _, result := range ranked {
		response = append(response, renderResult(h.estimator, result, region))
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write compare response", zap.Error(err))
	}
}

func renderResult(estimator *footprint.Estimator, result models.ProviderResult, region footprint.Region) ResultResponse {
	return ResultResponse{
		Model:         string(result.ProviderID),
		ModelName:     result.DisplayName,
		Response:      result.OutputText,
		InputTokens:   result.InputTokens,
		OutputTokens:  result.OutputTokens,
		ResponseTime:  result.Latency.Milliseconds(),
		LatencyStatus: string(result.Latency.Status()),
		Footprint:     estimator.Estimate(result, region),
	}
}

// regionFor prefers the body field and falls back to the region header
func regionFor(r *http.Request, bodyRegion string) string {
	if bodyRegion != "" {
		return bodyRegion
	}
	return middleware.GetRegionFromContext(r.Context())
}
