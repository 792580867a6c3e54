// Package observability provides structured logging and Prometheus metrics
// for the footprint service.
//
// Loggers are zap-based; a request-scoped logger carrying the request ID can
// be stored in and read back from a context. Metrics live on a private
// registry served by Handler at /metrics.
package observability
