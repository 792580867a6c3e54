package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services/footprint"
	"github.com/upb/llm-footprint/services/providers"
	"github.com/upb/llm-footprint/services/providers/searchsim"
	"go.uber.org/zap"
)

func TestCatalogHandler_Models(t *testing.T) {
	registry := providers.NewRegistry(nil)
	require.NoError(t, registry.RegisterBackend(searchsim.New()))

	handler := NewCatalogHandler(registry, newEstimator(t), zap.NewNop())
	w := httptest.NewRecorder()
	handler.HandleModels(w, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.RegistryEntry
	require.NoError(t, json.NewDecoder(w.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, models.ProviderWebSearch, entries[0].ID)
	assert.Nil(t, entries[0].Energy, "the search simulation has no energy profile")
}

func TestCatalogHandler_Regions(t *testing.T) {
	handler := NewCatalogHandler(providers.NewRegistry(nil), newEstimator(t), zap.NewNop())
	w := httptest.NewRecorder()
	handler.HandleRegions(w, httptest.NewRequest(http.MethodGet, "/api/v1/regions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var response RegionsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "Global Average", response.Default)
	assert.NotEmpty(t, response.Regions)
	assert.Contains(t, response.Regions, footprint.Region{Name: "Norway", Intensity: 26})
}

type summarizerFunc func(ctx context.Context, since time.Time) ([]*models.UsageSummary, error)

func (f summarizerFunc) SummarizeByProvider(ctx context.Context, since time.Time) ([]*models.UsageSummary, error) {
	return f(ctx, since)
}

func TestUsageHandler_Summary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var gotSince time.Time
	repo := summarizerFunc(func(ctx context.Context, since time.Time) ([]*models.UsageSummary, error) {
		gotSince = since
		return []*models.UsageSummary{{
			ProviderID: models.ProviderLlama2, Mode: models.UsageModeCompare,
			Calls: 4, Failures: 1, InputTokens: 40, OutputTokens: 80, AvgLatencyMs: 950, TotalEnergyWh: 0.13, EnergyKnownCalls: 3,
		}}, nil
	})

	handler := NewUsageHandler(repo, zap.NewNop())
	handler.now = func() time.Time { return now }

	t.Run("default window", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, now.Add(-24*time.Hour), gotSince)

		var response UsageSummaryResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.Len(t, response.Providers, 1)
		assert.Equal(t, int64(4), response.Providers[0].Calls)
		assert.Equal(t, models.ProviderLlama2, response.Providers[0].ProviderID)
	})

	t.Run("explicit since", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage?since=2026-02-01T00:00:00Z", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), gotSince.UTC())
	})

	t.Run("bad since", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage?since=yesterday", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUsageHandler_Failures(t *testing.T) {
	t.Run("recording disabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewUsageHandler(nil, zap.NewNop()).HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("database error is summarized", func(t *testing.T) {
		repo := summarizerFunc(func(ctx context.Context, since time.Time) ([]*models.UsageSummary, error) {
			return nil, errors.New("pq: relation does not exist")
		})
		w := httptest.NewRecorder()
		NewUsageHandler(repo, zap.NewNop()).HandleSummary(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}
