package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services"
	"github.com/upb/llm-footprint/utils"
	"go.uber.org/zap"
)

// defaultUsageWindow is summarized when the request gives no since
const defaultUsageWindow = 24 * time.Hour

// UsageSummarizer aggregates recorded usage
type UsageSummarizer interface {
	SummarizeByProvider(ctx context.Context, since time.Time) ([]*models.UsageSummary, error)
}

// UsageSummaryResponse is the body of GET /api/v1/usage
type UsageSummaryResponse struct {
	Since     time.Time              `json:"since"`
	Providers []*models.UsageSummary `json:"providers"`
}

// UsageHandler reports recorded usage. repo is nil when no database is configured.
type UsageHandler struct {
	repo   UsageSummarizer
	logger *zap.Logger
	now    func() time.Time
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(repo UsageSummarizer, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// HandleSummary handles GET /api/v1/usage?since=<RFC3339>
func (h *UsageHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		_ = utils.WriteNotFound(w, "Usage recording is disabled")
		return
	}

	since := h.now().Add(-defaultUsageWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			HandleServiceError(w, services.NewValidationError("since must be an RFC 3339 timestamp").WithDetail("since", raw), h.logger)
			return
		}
		since = parsed
	}

	summaries, err := h.repo.SummarizeByProvider(r.Context(), since)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to summarize usage", err), h.logger)
		return
	}
	if summaries == nil {
		summaries = []*models.UsageSummary{}
	}

	if err := utils.WriteOK(w, UsageSummaryResponse{Since: since.UTC(), Providers: summaries}); err != nil {
		h.logger.Error("failed to write usage response", zap.Error(err))
	}
}
