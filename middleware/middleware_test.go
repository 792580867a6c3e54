package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-footprint/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDHelpers(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", GetRequestIDFromContext(ctx))
	assert.Equal(t, "", GetRequestIDFromContext(context.Background()))
}

func TestRegionHelpers(t *testing.T) {
	ctx := WithRegion(context.Background(), "France")
	assert.Equal(t, "France", GetRegionFromContext(ctx))
	assert.Equal(t, "", GetRegionFromContext(context.Background()))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	var gotRegion string
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(logger))
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		gotRegion = GetRegionFromContext(r.Context())
		observability.LoggerFromContext(r.Context(), nil).Info("inside handler")
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(RegionHeader, " Norway ")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "Norway", gotRegion)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside handler", entries[0].Message)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])

	done := entries[1]
	assert.Equal(t, "request completed", done.Message)
	assert.Equal(t, zapcore.ErrorLevel, done.Level)
	assert.Equal(t, int64(http.StatusInternalServerError), done.ContextMap()["status"])
	assert.Equal(t, entries[0].ContextMap()["request_id"], done.ContextMap()["request_id"])
}

func TestRequestLogger_SilentHandlerIsOK(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.InfoLevel, logs.All()[0].Level)
	assert.Equal(t, int64(http.StatusOK), logs.All()[0].ContextMap()["status"])
}

func TestMetrics(t *testing.T) {
	metrics := observability.NewMetrics()

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/api/v1/models", func(w http.ResponseWriter, r *http.Request) {})
	r.Post("/api/v1/compare", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/models"},
		{http.MethodGet, "/api/v1/models"},
		{http.MethodPost, "/api/v1/compare"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))
	}

	count, err := testutil.GatherAndCount(metrics.Registry(), "llm_footprint_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per route, method and status")
}
