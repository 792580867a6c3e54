package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// contextKey avoids collisions with other packages' context values
type contextKey string

// RegionKey is the context key for the region a client asked footprints in
const RegionKey contextKey = "region"

// GetRequestIDFromContext returns the ID chi's RequestID middleware assigned
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// WithRequestID stores a request ID where GetRequestIDFromContext finds it
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, chimw.RequestIDKey, requestID)
}

// GetRegionFromContext returns the region header value, if any
func GetRegionFromContext(ctx context.Context) string {
	if val, ok := ctx.Value(RegionKey).(string); ok {
		return val
	}
	return ""
}

// WithRegion adds a region to the context
func WithRegion(ctx context.Context, region string) context.Context {
	return context.WithValue(ctx, RegionKey, region)
}
