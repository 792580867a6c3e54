package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/repositories"
	"go.uber.org/zap"
)

const usageColumns = `id, request_id, mode, provider_id, complexity, input_tokens, output_tokens,
		latency_ms, latency_status, failed, energy_wh, created_at`

const usageColumnCount = 12

// UsageRepository implements repositories.UsageRepository
type UsageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *DB, logger *zap.Logger) repositories.UsageRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts one usage record
func (r *UsageRepository) Insert(ctx context.Context, record *models.UsageRecord) error {
	return r.InsertBatch(ctx, []*models.UsageRecord{record})
}

// InsertBatch inserts records with a single multi-row statement
func (r *UsageRepository) InsertBatch(ctx context.Context, records []*models.UsageRecord) error {
	if len(records) == 0 {
		return nil
	}

	var query strings.Builder
	query.WriteString("INSERT INTO usage_events (")
	query.WriteString(usageColumns)
	query.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(records)*usageColumnCount)
	for i, rec := range records {
		if i > 0 {
			query.WriteString(", ")
		}
		query.WriteString("(")
		for c := 0; c < usageColumnCount; c++ {
			if c > 0 {
				query.WriteString(", ")
			}
			fmt.Fprintf(&query, "$%d", i*usageColumnCount+c+1)
		}
		query.WriteString(")")

		args = append(args,
			rec.ID,
			rec.RequestID,
			rec.Mode,
			rec.ProviderID,
			rec.Complexity,
			rec.InputTokens,
			rec.OutputTokens,
			rec.LatencyMs,
			rec.LatencyStatus,
			rec.Failed,
			rec.EnergyWh,
			rec.CreatedAt,
		)
	}

	if _, err := executorFor(ctx, r.db).ExecContext(ctx, query.String(), args...); err != nil {
		return fmt.Errorf("failed to insert usage records: %w", err)
	}

	r.logger.Debug("usage records inserted",
		zap.String("request_id", records[0].RequestID),
		zap.Int("count", len(records)))
	return nil
}

// ListByRequestID returns the records of one request, oldest first
func (r *UsageRepository) ListByRequestID(ctx context.Context, requestID string) ([]*models.UsageRecord, error) {
	query := `
		SELECT ` + usageColumns + `
		FROM usage_events
		WHERE request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer rows.Close()

	var records []*models.UsageRecord
	for rows.Next() {
		rec := &models.UsageRecord{}
		if err := rows.Scan(
			&rec.ID,
			&rec.RequestID,
			&rec.Mode,
			&rec.ProviderID,
			&rec.Complexity,
			&rec.InputTokens,
			&rec.OutputTokens,
			&rec.LatencyMs,
			&rec.LatencyStatus,
			&rec.Failed,
			&rec.EnergyWh,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage records: %w", err)
	}

	return records, nil
}

// SummarizeByProvider aggregates records per provider and mode.
// The average latency only counts measured calls.
func (r *UsageRepository) SummarizeByProvider(ctx context.Context, since time.Time) ([]*models.UsageSummary, error) {
	query := `
		SELECT provider_id, mode,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE failed),
		       COALESCE(SUM(input_tokens), 0),
		       COALESCE(SUM(output_tokens), 0),
		       COALESCE(AVG(latency_ms) FILTER (WHERE latency_status = 'measured'), 0),
		       COALESCE(SUM(energy_wh), 0),
		       COUNT(energy_wh)
		FROM usage_events
		WHERE created_at >= $1
		GROUP BY provider_id, mode
		ORDER BY provider_id, mode
	`

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	defer rows.Close()

	summaries := make([]*models.UsageSummary, 0)
	for rows.Next() {
		s := &models.UsageSummary{}
		if err := rows.Scan(
			&s.ProviderID,
			&s.Mode,
			&s.Calls,
			&s.Failures,
			&s.InputTokens,
			&s.OutputTokens,
			&s.AvgLatencyMs,
			&s.TotalEnergyWh,
			&s.EnergyKnownCalls,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage summary: %w", err)
	}

	return summaries, nil
}
