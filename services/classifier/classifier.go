// Package classifier labels a prompt with one of five complexity levels using an external model.
package classifier

import (
	"context"
	"strings"
	"time"

	"github.com/upb/llm-footprint/internal/observability"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services"
	"go.uber.org/zap"
)

// Instructions is the system prompt sent with every classification
const Instructions = `You are the Model Selector agent in a two-agent architecture for intelligent model selection.
Your task is to analyze the given prompt and determine its complexity level.

Classify the prompt on a 5-point scale:
1. Very Simple: Basic factual questions, simple definitions, or straightforward information retrieval
2. Simple: Questions requiring minimal context, basic explanations, or simple instructions
3. Moderate: Questions requiring some reasoning, explanations with context, or multi-step instructions
4. Complex: Problems requiring significant reasoning, complex explanations, or creative tasks
5. Very Complex: Advanced reasoning, specialized knowledge, or multi-step problem solving

Return a JSON object with the following fields:
- complexity: The complexity level as a string (one of: "Very Simple", "Simple", "Moderate", "Complex", "Very Complex")
- reasoning: A brief explanation of why you classified it at this complexity level (1-2 sentences)

Format your response as a valid JSON object without any markdown formatting or code blocks.`

// Credentials reports whether the classifier model can be called
type Credentials interface {
	Configured() bool
}

// Classifier turns free-form model output into a validated classification
type Classifier struct {
	completer   Completer
	credentials Credentials
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// New creates a classifier. credentials may be nil when the completer needs none.
func New(completer Completer, credentials Credentials, metrics *observability.Metrics, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		completer:   completer,
		credentials: credentials,
		metrics:     metrics,
		logger:      logger,
	}
}

// Classify asks the model for a label and validates it against the closed set.
// It never falls back to a default label.
func (c *Classifier) Classify(ctx context.Context, prompt string) (models.ComplexityClassification, error) {
	if strings.TrimSpace(prompt) == "" {
		return models.ComplexityClassification{}, services.ErrPromptRequired
	}
	if c.credentials != nil && !c.credentials.Configured() {
		return models.ComplexityClassification{}, services.ErrClassifierKeyMissing
	}

	logger := observability.LoggerFromContext(ctx, c.logger)
	start := time.Now()

	text, err := c.completer.Complete(ctx, Instructions, prompt)
	if err != nil {
		return models.ComplexityClassification{}, c.fail(logger, &ClassificationError{Stage: StageCall, Err: err})
	}
	logger.Debug("classifier answered", zap.Duration("elapsed", time.Since(start)), zap.Int("chars", len(text)))

	cand, err := extract(text)
	if err != nil {
		return models.ComplexityClassification{}, c.fail(logger, &ClassificationError{
			Stage:    StageExtract,
			Fragment: fragment(text),
			Err:      err,
		})
	}

	if cand.complexity == nil {
		return models.ComplexityClassification{}, c.fail(logger, invalidLabel(cand))
	}
	label, err := models.ParseComplexity(*cand.complexity)
	if err != nil {
		return models.ComplexityClassification{}, c.fail(logger, invalidLabel(cand))
	}

	c.metrics.RecordClassification(label.String())
	logger.Info("prompt classified",
		zap.String("complexity", label.String()),
		zap.String("extraction_stage", cand.stage))

	return models.ComplexityClassification{Label: label, Rationale: cand.reasoning}, nil
}

func invalidLabel(cand candidate) *ClassificationError {
	return &ClassificationError{
		Stage:    StageValidate,
		Fragment: fragment(cand.object),
		Err:      errInvalidLabel,
	}
}

// fail logs and converts a classification failure to a domain error
func (c *Classifier) fail(logger *zap.Logger, classErr *ClassificationError) error {
	c.metrics.RecordClassification("error_" + classErr.Stage)
	logger.Warn("classification failed",
		zap.String("stage", classErr.Stage),
		zap.String("fragment", classErr.Fragment),
		zap.Error(classErr.Err))

	domainErr := services.NewDomainError(services.ErrorTypeClassification, classErr.Error(), classErr)
	domainErr.WithDetail("stage", classErr.Stage)
	if classErr.Fragment != "" {
		domainErr.WithDetail("fragment", classErr.Fragment)
	}
	return domainErr
}
