package classifier

import (
	"context"
	"errors"
	"strings"
	"time"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

// DefaultModel classifies prompts when none is configured
const DefaultModel = "gpt-4o"

// Completer sends one instruction and prompt to a model and returns its text
type Completer interface {
	Complete(ctx context.Context, instructions, prompt string) (string, error)
}

// OpenAIConfig configures the OpenAI Responses API client
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// MaxRetries overrides the SDK default when set
	MaxRetries *int
}

// OpenAICompleter calls the OpenAI Responses API
type OpenAICompleter struct {
	client osdk.Client
	model  string
	apiKey string
}

// NewOpenAICompleter builds the SDK client. A missing key is reported by Configured, not here.
func NewOpenAICompleter(cfg OpenAIConfig) *OpenAICompleter {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*cfg.MaxRetries))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &OpenAICompleter{
		client: osdk.NewClient(opts...),
		model:  model,
		apiKey: cfg.APIKey,
	}
}

// Configured reports whether an API key is present
func (c *OpenAICompleter) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// Model returns the model used for classification
func (c *OpenAICompleter) Model() string {
	return c.model
}

// Complete implements Completer
func (c *OpenAICompleter) Complete(ctx context.Context, instructions, prompt string) (string, error) {
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:        c.model,
		Instructions: osdk.String(instructions),
		Input:        responses.ResponseNewParamsInputUnion{OfString: osdk.String(prompt)},
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return "", errors.New("model returned no text")
	}
	return text, nil
}
