package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services/providers"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	backendName    = "openrouter"

	// maxResponseBytes bounds how much of a response body is read
	maxResponseBytes = 8 << 20
)

// Config holds the gateway settings
type Config struct {
	APIKey  string
	BaseURL string
	Referer string
	Title   string
}

// Adapter calls the OpenRouter chat-completions endpoint for every model provider
type Adapter struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAdapter creates a new OpenRouter adapter. httpClient may be nil.
// Deadlines come from the per-call context, so the client carries no timeout of its own.
func NewAdapter(config Config, httpClient *http.Client, logger *zap.Logger) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		config:     config,
		httpClient: httpClient,
		logger:     logger.With(zap.String("backend", backendName)),
	}
}

// Name returns the backend name
func (a *Adapter) Name() string {
	return backendName
}

// Supports reports true for every model provider; the search simulation is not a model
func (a *Adapter) Supports(id models.ProviderID) bool {
	return !id.IsSimulated()
}

// Configured reports whether an API key is present
func (a *Adapter) Configured() bool {
	return a.config.APIKey != ""
}

// Invoke performs one bounded chat completion and normalizes the outcome
func (a *Adapter) Invoke(ctx context.Context, id models.ProviderID, prompt string, timeout time.Duration) models.ProviderResult {
	start := time.Now()

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := a.chatCompletion(callCtx, id, prompt)
	elapsed := time.Since(start)

	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = providers.NewProviderError(backendName, providers.CodeTimeout,
				"request cancelled: "+ctx.Err().Error(), 0, err)
		case errors.Is(callCtx.Err(), context.DeadlineExceeded):
			err = providers.NewProviderError(backendName, providers.CodeTimeout,
				fmt.Sprintf("request timed out after %s", timeout), 0, err)
		}
		a.logger.Warn("model call failed",
			zap.String("model", string(id)),
			zap.String("code", providers.ErrorCode(err)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return providers.FailureResult(id, err, elapsed)
	}

	text := ""
	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil {
		text = resp.Choices[0].Message.Content
	}
	var inputTokens, outputTokens int
	if resp.Usage != nil {
		inputTokens = resp.Usage.PromptTokens
		outputTokens = resp.Usage.CompletionTokens
	}

	a.logger.Debug("model call succeeded",
		zap.String("model", string(id)),
		zap.Duration("elapsed", elapsed),
		zap.Int("input_tokens", inputTokens),
		zap.Int("output_tokens", outputTokens))

	return models.NewSuccessResult(id, text, inputTokens, outputTokens, elapsed)
}

// chatCompletion issues the request and decodes a 2xx body with a choices array
func (a *Adapter) chatCompletion(ctx context.Context, id models.ProviderID, prompt string) (*chatResponse, error) {
	if a.config.APIKey == "" {
		return nil, providers.NewProviderError(backendName, providers.CodeConfiguration,
			"OpenRouter API key is not configured", 0, nil)
	}

	reqBody, err := json.Marshal(providers.NewUserPrompt(id, prompt))
	if err != nil {
		return nil, providers.NewProviderError(backendName, providers.CodeTransport, "failed to marshal request", 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, providers.NewProviderError(backendName, providers.CodeTransport, "failed to create request", 0, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	if a.config.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", a.config.Referer)
	}
	if a.config.Title != "" {
		httpReq.Header.Set("X-Title", a.config.Title)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(backendName, providers.CodeTransport, err.Error(), 0, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
			return nil, providers.NewProviderError(backendName, providers.CodeParseError,
				"Failed to parse response: "+err.Error(), httpResp.StatusCode, err)
		}
		respBody = nil
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, a.handleErrorResponse(httpResp, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, providers.NewProviderError(backendName, providers.CodeParseError,
			"Failed to parse response: "+err.Error(), httpResp.StatusCode, err)
	}
	if parsed.Choices == nil {
		detail := "missing choices"
		if msg := parsed.Error.message(); msg != "" {
			detail = msg
		}
		return nil, providers.NewProviderError(backendName, providers.CodeResponseShape,
			"unexpected response shape: "+detail, httpResp.StatusCode, errors.New(detail))
	}

	return &parsed, nil
}

// handleErrorResponse builds "API returned <status>: <message>" from a non-2xx response
func (a *Adapter) handleErrorResponse(httpResp *http.Response, body []byte) error {
	statusText := http.StatusText(httpResp.StatusCode)
	if statusText == "" {
		statusText = strings.TrimSpace(strings.TrimPrefix(httpResp.Status, fmt.Sprint(httpResp.StatusCode)))
	}

	detail := statusText
	var errResp errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &errResp) == nil {
		if msg := errResp.Error.message(); msg != "" {
			detail = msg
		}
	}

	msg := fmt.Sprintf("API returned %d: %s", httpResp.StatusCode, detail)
	return providers.NewProviderError(backendName, providers.CodeAPIError, msg, httpResp.StatusCode, errors.New(msg))
}

// OpenRouter response types

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage"`
	Error   errorField   `json:"error"`
}

type chatChoice struct {
	Index        int                `json:"index"`
	Message      *providers.Message `json:"message"`
	FinishReason string             `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorEnvelope struct {
	Error errorField `json:"error"`
}

// errorField accepts both {"error": {"message": "..."}} and {"error": "..."}
type errorField struct {
	raw json.RawMessage
}

func (f *errorField) UnmarshalJSON(data []byte) error {
	f.raw = append(f.raw[:0], data...)
	return nil
}

func (f errorField) message() string {
	if len(f.raw) == 0 || string(f.raw) == "null" {
		return ""
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(f.raw, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if json.Unmarshal(f.raw, &s) == nil {
		return s
	}
	return ""
}
