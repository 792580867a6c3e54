// Package compare fans one prompt out to several providers and ranks the outcomes.
package compare

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/upb/llm-footprint/internal/observability"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services"
	"github.com/upb/llm-footprint/services/footprint"
	"github.com/upb/llm-footprint/services/providers"
	"github.com/upb/llm-footprint/services/usage"
	"go.uber.org/zap"
)

// DefaultProviderTimeout bounds each provider call of a batch
const DefaultProviderTimeout = 30 * time.Second

// Credentials reports whether the upstream gateway can be called at all
type Credentials interface {
	Configured() bool
}

// Config holds the batch settings
type Config struct {
	// Models are compared when a request names none
	Models          []models.ProviderID
	ProviderTimeout time.Duration
}

// Service runs comparison batches
type Service struct {
	client      providers.Client
	credentials Credentials
	config      Config
	recorder    usage.Recorder
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewService creates a compare service. recorder and metrics may be nil.
func NewService(client providers.Client, credentials Credentials, config Config, recorder usage.Recorder, metrics *observability.Metrics, logger *zap.Logger) *Service {
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = DefaultProviderTimeout
	}
	if recorder == nil {
		recorder = usage.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:      client,
		credentials: credentials,
		config:      config,
		recorder:    recorder,
		metrics:     metrics,
		logger:      logger,
	}
}

// Models returns the default comparison set
func (s *Service) Models() []models.ProviderID {
	out := make([]models.ProviderID, len(s.config.Models))
	copy(out, s.config.Models)
	return out
}

// Compare sends prompt to every provider concurrently and waits for all of them.
// The result slice has one entry per id, in the order of ids. A nil ids uses the default set.
// Per-provider failures never fail the batch; they come back as error-marked results.
func (s *Service) Compare(ctx context.Context, prompt string, ids []models.ProviderID) ([]models.ProviderResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, services.ErrPromptRequired
	}
	if s.credentials != nil && !s.credentials.Configured() {
		return nil, services.ErrOpenRouterKeyMissing
	}
	if ids == nil {
		ids = s.config.Models
	}
	if len(ids) == 0 {
		return nil, services.NewConfigurationError("No models configured for comparison")
	}

	logger := observability.LoggerFromContext(ctx, s.logger)
	logger.Info("starting comparison",
		zap.Int("providers", len(ids)),
		zap.Duration("provider_timeout", s.config.ProviderTimeout))

	start := time.Now()
	results := s.fanOut(ctx, prompt, ids, logger)

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
		s.metrics.RecordProviderCall(string(r.ProviderID), string(models.UsageModeCompare), r.Failed(),
			r.Latency.Duration(), r.InputTokens, r.OutputTokens)
		if !r.Failed() {
			if wh, ok := footprint.EnergyWh(r.ProviderID, r.InputTokens, r.OutputTokens); ok {
				s.metrics.RecordEnergy(string(r.ProviderID), wh)
			}
		}
	}

	if err := s.recorder.Record(usage.Records(usage.RequestID(ctx), models.UsageModeCompare, 0, results)); err != nil {
		logger.Warn("usage not recorded", zap.Error(err))
	}

	logger.Info("comparison finished",
		zap.Int("providers", len(results)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))

	return results, nil
}

// fanOut starts one goroutine per provider and joins them all.
// Each goroutine writes only its own slot.
func (s *Service) fanOut(ctx context.Context, prompt string, ids []models.ProviderID, logger *zap.Logger) []models.ProviderResult {
	results := make([]models.ProviderResult, len(ids))

	var wg sync.WaitGroup
	wg.Add(len(ids))
	for i, id := range ids {
		go func(i int, id models.ProviderID) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("provider invocation panicked",
						zap.String("provider", string(id)),
						zap.Any("panic", rec))
					results[i] = providers.RequestFailedResult(id, fmt.Sprint(rec))
				}
			}()
			results[i] = s.client.Invoke(ctx, id, prompt, s.config.ProviderTimeout)
		}(i, id)
	}
	wg.Wait()

	return results
}
