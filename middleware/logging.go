package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/llm-footprint/internal/observability"
	"go.uber.org/zap"
)

// RegionHeader lets clients pick a footprint region without a body field
const RegionHeader = "X-Footprint-Region"

// RequestLogger attaches a request-scoped zap logger carrying the request ID
// and logs one line per request once it completes.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With(zap.String("request_id", GetRequestIDFromContext(r.Context())))

			ctx := observability.WithLogger(r.Context(), reqLogger)
			if region := strings.TrimSpace(r.Header.Get(RegionHeader)); region != "" {
				ctx = WithRegion(ctx, region)
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := statusOf(ww)
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
			}
			switch {
			case status >= http.StatusInternalServerError:
				reqLogger.Error("request completed", fields...)
			case status >= http.StatusBadRequest:
				reqLogger.Warn("request completed", fields...)
			default:
				reqLogger.Info("request completed", fields...)
			}
		})
	}
}

// Metrics records the count and duration of every request by route pattern
func Metrics(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			metrics.RecordHTTPRequest(route, r.Method, statusOf(ww), time.Since(start))
		})
	}
}

// statusOf treats a handler that never wrote as 200, like net/http does
func statusOf(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
