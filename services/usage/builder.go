package usage

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services/footprint"
)

// RequestID returns the request ID chi assigned to ctx, or a fresh UUID
func RequestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// Records converts provider results to usage records sharing one request ID.
// complexity is only set for route mode.
func Records(requestID string, mode models.UsageMode, complexity models.Complexity, results []models.ProviderResult) []*models.UsageRecord {
	records := make([]*models.UsageRecord, 0, len(results))
	for _, result := range results {
		rec := models.NewUsageRecord(requestID, mode, result)
		if mode == models.UsageModeRoute {
			rec.WithComplexity(complexity)
		}
		if !result.Failed() {
			if wh, ok := footprint.EnergyWh(result.ProviderID, result.InputTokens, result.OutputTokens); ok {
				rec.WithEnergy(wh)
			}
		}
		records = append(records, rec)
	}
	return records
}
