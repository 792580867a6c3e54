package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "llm_footprint"

// Metrics holds every Prometheus collector of the service on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	providerTokens  *prometheus.CounterVec
	energyWh        *prometheus.CounterVec
	classifications *prometheus.CounterVec
	routeDecisions  *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	usageDropped    prometheus.Counter
	usagePersisted  *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Provider invocations by provider, mode and outcome.",
		}, []string{"provider", "mode", "status"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "latency_seconds",
			Help:      "Provider call latency, successes and failures alike.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"provider", "status"}),
		providerTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "tokens_total",
			Help:      "Tokens reported by providers.",
		}, []string{"provider", "direction"}),
		energyWh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "footprint",
			Name:      "energy_wh_total",
			Help:      "Estimated energy in Wh for providers with a known energy profile.",
		}, []string{"provider"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "results_total",
			Help:      "Complexity classifications by label, or by failure stage.",
		}, []string{"outcome"}),
		routeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "route",
			Name:      "decisions_total",
			Help:      "Route selections by complexity, preference and provider.",
		}, []string{"complexity", "preference", "provider"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		usageDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "usage",
			Name:      "dropped_total",
			Help:      "Usage records dropped because the queue was full.",
		}),
		usagePersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "usage",
			Name:      "persisted_total",
			Help:      "Usage records written to the database, by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.providerCalls,
		m.providerLatency,
		m.providerTokens,
		m.energyWh,
		m.classifications,
		m.routeDecisions,
		m.httpRequests,
		m.httpDuration,
		m.usageDropped,
		m.usagePersisted,
	)

	return m
}

// Registry exposes the private registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// RecordProviderCall records one provider invocation
func (m *Metrics) RecordProviderCall(provider, mode string, failed bool, elapsed time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	status := "success"
	if failed {
		status = "error"
	}
	m.providerCalls.WithLabelValues(provider, mode, status).Inc()
	m.providerLatency.WithLabelValues(provider, status).Observe(elapsed.Seconds())
	if inputTokens > 0 {
		m.providerTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.providerTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

// RecordEnergy adds estimated energy for a provider
func (m *Metrics) RecordEnergy(provider string, wh float64) {
	if m == nil || wh <= 0 {
		return
	}
	m.energyWh.WithLabelValues(provider).Add(wh)
}

// RecordClassification records a classifier outcome: a label, or "error_<stage>"
func (m *Metrics) RecordClassification(outcome string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(outcome).Inc()
}

// RecordRouteDecision records the provider picked for a complexity and preference
func (m *Metrics) RecordRouteDecision(complexity, preference, provider string) {
	if m == nil {
		return
	}
	m.routeDecisions.WithLabelValues(complexity, preference, provider).Inc()
}

// RecordHTTPRequest records a served request
func (m *Metrics) RecordHTTPRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RecordUsageDropped counts usage records lost to a full queue
func (m *Metrics) RecordUsageDropped(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.usageDropped.Add(float64(count))
}

// RecordUsagePersisted counts usage records written (or failed to write)
func (m *Metrics) RecordUsagePersisted(count int, ok bool) {
	if m == nil || count <= 0 {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.usagePersisted.WithLabelValues(result).Add(float64(count))
}
