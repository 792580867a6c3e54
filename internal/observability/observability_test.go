package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr string
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "console debug", level: "debug", format: "console"},
		{name: "defaults", level: "", format: ""},
		{name: "invalid level", level: "loud", format: "json", wantErr: "invalid log level"},
		{name: "invalid format", level: "info", format: "xml", wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			_ = logger.Sync()
		})
	}
}

func TestLoggerFromContext(t *testing.T) {
	fallback := zap.NewNop()
	assert.Same(t, fallback, LoggerFromContext(context.Background(), fallback))
	assert.NotNil(t, LoggerFromContext(context.Background(), nil))

	scoped := zap.NewExample()
	ctx := WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, LoggerFromContext(ctx, fallback))
}

func TestMetrics_RecordProviderCall(t *testing.T) {
	m := NewMetrics()

	m.RecordProviderCall("deepseek/deepseek-r1:free", "compare", false, 1200*time.Millisecond, 10, 30)
	m.RecordProviderCall("deepseek/deepseek-r1:free", "compare", true, 30*time.Second, 0, 0)
	m.RecordProviderCall("deepseek/deepseek-r1:free", "compare", false, time.Second, 5, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.providerCalls.WithLabelValues("deepseek/deepseek-r1:free", "compare", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerCalls.WithLabelValues("deepseek/deepseek-r1:free", "compare", "error")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.providerTokens.WithLabelValues("deepseek/deepseek-r1:free", "input")))
	assert.Equal(t, 35.0, testutil.ToFloat64(m.providerTokens.WithLabelValues("deepseek/deepseek-r1:free", "output")))
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordClassification("Complex")
	m.RecordClassification("error_extract")
	m.RecordRouteDecision("Complex", "none", "deepseek/deepseek-r1:free")
	m.RecordEnergy("meta-llama/llama-2-70b-chat", 0.5)
	m.RecordEnergy("meta-llama/llama-2-70b-chat", 0)
	m.RecordUsageDropped(2)
	m.RecordUsagePersisted(3, true)
	m.RecordUsagePersisted(0, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifications.WithLabelValues("Complex")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifications.WithLabelValues("error_extract")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routeDecisions.WithLabelValues("Complex", "none", "deepseek/deepseek-r1:free")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.energyWh.WithLabelValues("meta-llama/llama-2-70b-chat")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.usageDropped))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.usagePersisted.WithLabelValues("ok")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordProviderCall("x", "route", true, time.Second, 1, 1)
		m.RecordClassification("Simple")
		m.RecordRouteDecision("Simple", "none", "x")
		m.RecordHTTPRequest("/x", "GET", 200, time.Millisecond)
		m.RecordUsageDropped(1)
		m.RecordUsagePersisted(1, true)
		m.RecordEnergy("x", 1)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordHTTPRequest("/api/v1/compare", http.MethodPost, http.StatusOK, 2*time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "llm_footprint_http_requests_total")
	assert.Contains(t, string(body), `route="/api/v1/compare"`)
}
