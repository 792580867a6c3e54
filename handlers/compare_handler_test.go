package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-footprint/middleware"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services"
	"github.com/upb/llm-footprint/services/footprint"
	"github.com/upb/llm-footprint/services/providers"
	"go.uber.org/zap"
)

type compareFunc func(ctx context.Context, prompt string, ids []models.ProviderID) ([]models.ProviderResult, error)

func (f compareFunc) Compare(ctx context.Context, prompt string, ids []models.ProviderID) ([]models.ProviderResult, error) {
	return f(ctx, prompt, ids)
}

func newEstimator(t *testing.T) *footprint.Estimator {
	t.Helper()
	estimator, err := footprint.NewEstimator("")
	require.NoError(t, err)
	return estimator
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCompareHandler_RanksAndEstimates(t *testing.T) {
	var gotPrompt string
	var hadDeadline bool
	service := compareFunc(func(ctx context.Context, prompt string, ids []models.ProviderID) ([]models.ProviderResult, error) {
		gotPrompt = prompt
		_, hadDeadline = ctx.Deadline()
		return []models.ProviderResult{
			providers.FailureResult(models.ProviderLlama2, assert.AnError, 30*time.Second),
			models.NewSuccessResult(models.ProviderDeepSeekR1, "slow", 500, 500, 3*time.Second),
			models.NewSuccessResult(models.ProviderLlama3, "fast", 10, 20, 800*time.Millisecond),
		}, nil
	})

	handler := NewCompareHandler(service, newEstimator(t), time.Minute, zap.NewNop())
	w := httptest.NewRecorder()
	handler.HandleCompare(w, postJSON("/api/v1/compare", `{"prompt":"What is 2+2?","region":"France"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "What is 2+2?", gotPrompt)
	assert.True(t, hadDeadline, "the batch guard bounds the service call")

	var response []ResultResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response, 3)

	assert.Equal(t, string(models.ProviderLlama3), response[0].Model)
	assert.Equal(t, "Llama 3", response[0].ModelName)
	assert.Equal(t, int64(800), response[0].ResponseTime)
	assert.Equal(t, "measured", response[0].LatencyStatus)
	require.NotNil(t, response[0].EnergyWh)
	assert.InDelta(t, 0.03*15.33, *response[0].EnergyWh, 1e-9)
	require.NotNil(t, response[0].CO2Grams)
	assert.InDelta(t, 0.03*15.33/1000*56, *response[0].CO2Grams, 1e-9)

	assert.Equal(t, string(models.ProviderDeepSeekR1), response[1].Model)

	failed := response[2]
	assert.Equal(t, string(models.ProviderLlama2), failed.Model)
	assert.Equal(t, "failed", failed.LatencyStatus)
	assert.True(t, strings.HasPrefix(failed.Response, "Error: "))
	assert.Nil(t, failed.EnergyWh, "failed calls have no footprint")
}

func TestCompareHandler_RegionHeader(t *testing.T) {
	service := compareFunc(func(ctx context.Context, prompt string, ids []models.ProviderID) ([]models.ProviderResult, error) {
		return []models.ProviderResult{models.NewSuccessResult(models.ProviderLlama2, "ok", 500, 500, time.Second)}, nil
	})
	handler := NewCompareHandler(service, newEstimator(t), 0, zap.NewNop())

	req := postJSON("/api/v1/compare", `{"prompt":"hi"}`)
	req = req.WithContext(middleware.WithRegion(req.Context(), "sweden"))
	w := httptest.NewRecorder()
	handler.HandleCompare(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response []ResultResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.NotNil(t, response[0].CO2Grams)
	assert.InDelta(t, 1.12/1000*13, *response[0].CO2Grams, 1e-12)
}

func TestCompareHandler_Errors(t *testing.T) {
	var calls int
	service := compareFunc(func(ctx context.Context, prompt string, ids []models.ProviderID) ([]models.ProviderResult, error) {
		calls++
		if prompt == "no key" {
			return nil, services.ErrOpenRouterKeyMissing
		}
		return nil, nil
	})
	handler := NewCompareHandler(service, newEstimator(t), time.Minute, zap.NewNop())

	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantError    string
		wantsService bool
	}{
		{"missing prompt", `{}`, http.StatusBadRequest, "Prompt is required", false},
		{"empty prompt", `{"prompt":""}`, http.StatusBadRequest, "Prompt is required", false},
		{"unparsable body", `prompt=hi`, http.StatusBadRequest, "Prompt is required", false},
		{"non-string prompt", `{"prompt":7}`, http.StatusBadRequest, "Prompt is required", false},
		{"unknown region", `{"prompt":"hi","region":"Atlantis"}`, http.StatusBadRequest, "Unknown region", false},
		{"missing credentials", `{"prompt":"no key"}`, http.StatusInternalServerError, "OpenRouter API key is not configured", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := calls
			w := httptest.NewRecorder()
			handler.HandleCompare(w, postJSON("/api/v1/compare", tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			var response map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.wantError, response["error"])
			assert.Equal(t, tt.wantsService, calls > before)
		})
	}
}
