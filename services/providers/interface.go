package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upb/llm-footprint/models"
)

// Client sends one prompt to one provider. Invoke never returns an error:
// every failure is folded into a ProviderResult carrying the error marker.
type Client interface {
	Invoke(ctx context.Context, id models.ProviderID, prompt string, timeout time.Duration) models.ProviderResult
}

// Backend serves a subset of providers (an HTTP gateway, a local simulation).
type Backend interface {
	Client

	// Name returns the backend name (e.g., "openrouter", "searchsim")
	Name() string

	// Supports reports whether the backend can serve the provider
	Supports(id models.ProviderID) bool
}

// ChatRequest is the chat-completions request body sent to the gateway
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Message represents a single message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserPrompt builds a single-message request
func NewUserPrompt(id models.ProviderID, prompt string) ChatRequest {
	return ChatRequest{
		Model:    string(id),
		Messages: []Message{{Role: "user", Content: prompt}},
	}
}

// Error codes used in ProviderError
const (
	CodeTimeout       = "TIMEOUT"
	CodeTransport     = "HTTP_ERROR"
	CodeAPIError      = "API_ERROR"
	CodeParseError    = "PARSE_ERROR"
	CodeResponseShape = "RESPONSE_SHAPE"
	CodeConfiguration = "CONFIGURATION"
)

// ProviderError represents a failed provider call
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is one of the Code* constants
	Code string

	// Message is the caller-facing detail
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// ErrorCode returns the code of a ProviderError, or "" for other errors
func ErrorCode(err error) string {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Code
	}
	return ""
}

// FailureResult converts a failed call into the normalized failure result.
// The output reads "Error: Failed to get response from this model. <detail>".
func FailureResult(id models.ProviderID, err error, elapsed time.Duration) models.ProviderResult {
	detail := "Unknown error"
	var provErr *ProviderError
	switch {
	case errors.As(err, &provErr):
		detail = provErr.Message
	case err != nil:
		detail = err.Error()
	}
	return models.NewFailureResult(id,
		fmt.Sprintf("Failed to get response from this model. %s", detail),
		models.FailedLatency(elapsed))
}

// RequestFailedResult is used when an invocation could not run to completion at all
func RequestFailedResult(id models.ProviderID, reason string) models.ProviderResult {
	if reason == "" {
		reason = "Unknown error"
	}
	return models.NewFailureResult(id, "Request failed. "+reason, models.UnmeasuredLatency())
}
