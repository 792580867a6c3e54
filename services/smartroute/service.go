// Package smartroute classifies a prompt, picks one provider for it and runs it there.
package smartroute

import (
	"context"
	"strings"
	"time"

	"github.com/upb/llm-footprint/internal/observability"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services"
	"github.com/upb/llm-footprint/services/footprint"
	"github.com/upb/llm-footprint/services/providers"
	"github.com/upb/llm-footprint/services/routing"
	"github.com/upb/llm-footprint/services/usage"
	"go.uber.org/zap"
)

// DefaultProviderTimeout bounds the single routed call
const DefaultProviderTimeout = 30 * time.Second

// ErrMissingExecuteFields is returned when execute lacks a prompt or a model
var ErrMissingExecuteFields = services.NewValidationError("Prompt and selectedModel are required")

// Classifier labels a prompt
type Classifier interface {
	Classify(ctx context.Context, prompt string) (models.ComplexityClassification, error)
}

// Credentials reports whether the model gateway can be called
type Credentials interface {
	Configured() bool
}

// Config holds the routing settings
type Config struct {
	ProviderTimeout time.Duration
}

// Analysis is the outcome of classifying and routing a prompt
type Analysis struct {
	Complexity    models.Complexity        `json:"complexity"`
	SelectedModel models.ProviderID        `json:"selectedModel"`
	Reasoning     string                   `json:"reasoning"`
	Preference    models.RoutingPreference `json:"-"`
}

// Execution is the single routed result with the classification that led to it
type Execution struct {
	Result         models.ProviderResult
	Classification models.ComplexityClassification
}

// Service runs the analyze and execute steps of smart routing
type Service struct {
	classifier  Classifier
	client      providers.Client
	credentials Credentials
	config      Config
	recorder    usage.Recorder
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewService creates a smart-routing service. recorder and metrics may be nil.
func NewService(classifier Classifier, client providers.Client, credentials Credentials, config Config, recorder usage.Recorder, metrics *observability.Metrics, logger *zap.Logger) *Service {
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
		classifier:  classifier,
		client:      client,
		credentials: credentials,
		config:      config,
		recorder:    recorder,
		metrics:     metrics,
		logger:      logger,
	}
}

// Analyze classifies prompt and selects the provider for the resolved preference
func (s *Service) Analyze(ctx context.Context, prompt string, prefs models.Preferences) (*Analysis, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, services.ErrPromptRequired
	}

	classification, err := s.classifier.Classify(ctx, prompt)
	if err != nil {
		return nil, err
	}

	pref := routing.ResolvePreference(prefs)
	selected := routing.SelectRoute(classification.Label, pref)
	s.metrics.RecordRouteDecision(classification.Label.String(), string(pref), string(selected))

	observability.LoggerFromContext(ctx, s.logger).Info("route selected",
		zap.String("complexity", classification.Label.String()),
		zap.String("preference", string(pref)),
		zap.String("model", string(selected)))

	return &Analysis{
		Complexity:    classification.Label,
		SelectedModel: selected,
		Reasoning:     routing.Reasoning(classification.Rationale, pref),
		Preference:    pref,
	}, nil
}

// Execute runs prompt on exactly the selected provider. There is no fallback:
// a result carrying the error marker is an execution failure.
func (s *Service) Execute(ctx context.Context, prompt string, selectedModel string, classification models.ComplexityClassification) (*Execution, error) {
	if strings.TrimSpace(prompt) == "" || strings.TrimSpace(selectedModel) == "" {
		return nil, ErrMissingExecuteFields
	}
	id, err := models.ParseProviderID(selectedModel)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.ErrUnknownModel.Message, err).
			WithDetail("selectedModel", selectedModel)
	}
	if !id.IsSimulated() && s.credentials != nil && !s.credentials.Configured() {
		return nil, services.ErrOpenRouterKeyMissing
	}

	logger := observability.LoggerFromContext(ctx, s.logger)
	result := s.client.Invoke(ctx, id, prompt, s.config.ProviderTimeout)

	s.metrics.RecordProviderCall(string(id), string(models.UsageModeRoute), result.Failed(),
		result.Latency.Duration(), result.InputTokens, result.OutputTokens)
	if !result.Failed() {
		if wh, ok := footprint.EnergyWh(id, result.InputTokens, result.OutputTokens); ok {
			s.metrics.RecordEnergy(string(id), wh)
		}
	}

	records := usage.Records(usage.RequestID(ctx), models.UsageModeRoute, classification.Label, []models.ProviderResult{result})
	if err := s.recorder.Record(records); err != nil {
		logger.Warn("usage not recorded", zap.Error(err))
	}

	if result.Failed() {
		logger.Error("routed execution failed",
			zap.String("model", string(id)),
			zap.String("output", result.OutputText))
		return nil, services.NewDomainError(services.ErrorTypeExecution, "Failed to execute query", nil).
			WithDetail("model", string(id)).
			WithDetail("cause", result.OutputText)
	}

	logger.Info("routed execution finished",
		zap.String("model", string(id)),
		zap.Int64("latency_ms", result.Latency.Milliseconds()))

	return &Execution{Result: result, Classification: classification}, nil
}
