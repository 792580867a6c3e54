package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services"
	"github.com/upb/llm-footprint/services/classifier"
	"github.com/upb/llm-footprint/services/smartroute"
	"go.uber.org/zap"
)

// MockRouteService is a mock implementation of RouteService
type MockRouteService struct {
	mock.Mock
}

func (m *MockRouteService) Analyze(ctx context.Context, prompt string, prefs models.Preferences) (*smartroute.Analysis, error) {
	args := m.Called(ctx, prompt, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*smartroute.Analysis), args.Error(1)
}

func (m *MockRouteService) Execute(ctx context.Context, prompt string, selectedModel string, classification models.ComplexityClassification) (*smartroute.Execution, error) {
	args := m.Called(ctx, prompt, selectedModel, classification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*smartroute.Execution), args.Error(1)
}

func TestRouteHandler_Analyze(t *testing.T) {
	service := new(MockRouteService)
	service.On("Analyze", mock.Anything, "Design a compiler", models.Preferences{LowLatency: true, LowCost: true}).
		Return(&smartroute.Analysis{
			Complexity:    models.ComplexityComplex,
			SelectedModel: models.ProviderLlama3,
			Reasoning:     "Multi-stage work. Low latency was prioritized.",
			Preference:    models.PreferLowLatency,
		}, nil)

	handler := NewRouteHandler(service, newEstimator(t), zap.NewNop())
	w := httptest.NewRecorder()
	handler.HandleAnalyze(w, postJSON("/api/v1/route/analyze",
		`{"prompt":"Design a compiler","preferences":{"lowLatency":true,"lowCost":true}}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"complexity": "Complex",
		"selectedModel": "meta-llama/llama-3.1-405b:free",
		"reasoning": "Multi-stage work. Low latency was prioritized."
	}`, w.Body.String())
	service.AssertExpectations(t)
}

func TestRouteHandler_Analyze_Errors(t *testing.T) {
	t.Run("missing prompt", func(t *testing.T) {
		service := new(MockRouteService)
		handler := NewRouteHandler(service, newEstimator(t), zap.NewNop())

		w := httptest.NewRecorder()
		handler.HandleAnalyze(w, postJSON("/api/v1/route/analyze", `{"preferences":{}}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		service.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("classification failure", func(t *testing.T) {
		const prose = "I think this is a moderately complex question."
		labeler := classifier.New(proseCompleter(prose), proseCompleter(prose), nil, zap.NewNop())
		_, classErr := labeler.Classify(context.Background(), "hi")
		require.Error(t, classErr)

		service := new(MockRouteService)
		service.On("Analyze", mock.Anything, "hi", models.Preferences{}).Return(nil, classErr)
		handler := NewRouteHandler(service, newEstimator(t), zap.NewNop())

		w := httptest.NewRecorder()
		handler.HandleAnalyze(w, postJSON("/api/v1/route/analyze", `{"prompt":"hi"}`))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Failed to analyze prompt: No valid JSON found in response", response["error"])
		assert.Equal(t, "classification", response["code"])
		details, ok := response["details"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "extract", details["stage"])
		assert.Equal(t, prose, details["fragment"])
	})
}

// proseCompleter answers every classification with fixed text
type proseCompleter string

func (p proseCompleter) Complete(ctx context.Context, instructions, prompt string) (string, error) {
	return string(p), nil
}

func (p proseCompleter) Configured() bool { return true }

func TestRouteHandler_Execute(t *testing.T) {
	classification := models.ComplexityClassification{Label: models.ComplexityModerate, Rationale: "Some reasoning."}
	service := new(MockRouteService)
	service.On("Execute", mock.Anything, "Explain TCP", string(models.ProviderLlama2), classification).
		Return(&smartroute.Execution{
			Result:         models.NewSuccessResult(models.ProviderLlama2, "TCP is...", 200, 800, 1200*time.Millisecond),
			Classification: classification,
		}, nil)

	handler := NewRouteHandler(service, newEstimator(t), zap.NewNop())
	w := httptest.NewRecorder()
	handler.HandleExecute(w, postJSON("/api/v1/route/execute", `{
		"prompt": "Explain TCP",
		"selectedModel": "meta-llama/llama-2-70b-chat",
		"complexity": "Moderate",
		"reasoning": " Some reasoning. "
	}`))

	require.Equal(t, http.StatusOK, w.Code)
	var response ExecuteResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "TCP is...", response.Response)
	assert.Equal(t, 200, response.InputTokens)
	assert.Equal(t, 800, response.OutputTokens)
	assert.Equal(t, int64(1200), response.ResponseTime)
	assert.Equal(t, "Llama 2", response.ModelName)
	assert.Equal(t, "Moderate", response.Complexity)
	assert.Equal(t, "Some reasoning.", response.Reasoning)
	require.NotNil(t, response.EnergyWh)
	assert.InDelta(t, 1.12, *response.EnergyWh, 1e-9)
	service.AssertExpectations(t)
}

func TestRouteHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing model",
			body:       `{"prompt":"hi"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Prompt and selectedModel are required",
		},
		{
			name:       "missing prompt",
			body:       `{"selectedModel":"google-search"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Prompt and selectedModel are required",
		},
		{
			name:       "unknown model",
			body:       `{"prompt":"hi","selectedModel":"openai/gpt-5"}`,
			serviceErr: services.NewDomainError(services.ErrorTypeValidation, "Unknown model", nil),
			wantStatus: http.StatusBadRequest,
			wantError:  "Unknown model",
		},
		{
			name:       "execution failure",
			body:       `{"prompt":"hi","selectedModel":"deepseek/deepseek-r1:free"}`,
			serviceErr: services.NewDomainError(services.ErrorTypeExecution, "Failed to execute query", nil),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to execute query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockRouteService)
			if tt.serviceErr != nil {
				service.On("Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}
			handler := NewRouteHandler(service, newEstimator(t), zap.NewNop())

			w := httptest.NewRecorder()
			handler.HandleExecute(w, postJSON("/api/v1/route/execute", tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			var response map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.wantError, response["error"])
			if tt.serviceErr == nil {
				service.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
