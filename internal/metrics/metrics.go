package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rxtech-lab/web3-gateway/internal/apperr"
)

const (
	namespace = "web3_gateway"

	CacheABI      = "abi"
	CacheContract = "contract"

	resultHit  = "hit"
	resultMiss = "miss"
)

// Metrics holds the gateway collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	cacheLookups    *prometheus.CounterVec
	operationErrors *prometheus.CounterVec
	requests        *prometheus.CounterVec
}

// New registers the gateway collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "ABI and contract binding cache lookups",
			},
			[]string{"cache", "result"},
		),
		operationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "operation_errors_total",
				Help:      "Failed gateway operations by error kind",
			},
			[]string{"operation", "kind"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(cache, resultHit).Inc()
}

func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(cache, resultMiss).Inc()
}

// OperationFailed counts a failed gateway operation under the kind of err.
func (m *Metrics) OperationFailed(operation string, err error) {
	if m == nil {
		return
	}
	m.operationErrors.WithLabelValues(operation, apperr.Label(err)).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// CacheLookups exposes the cache counter, mainly for tests.
func (m *Metrics) CacheLookups(cache string, hit bool) prometheus.Counter {
	result := resultMiss
	if hit {
		result = resultHit
	}
	return m.cacheLookups.WithLabelValues(cache, result)
}

// OperationErrors exposes the failure counter, mainly for tests.
func (m *Metrics) OperationErrors(operation, kind string) prometheus.Counter {
	return m.operationErrors.WithLabelValues(operation, kind)
}

// Requests exposes the request counter, mainly for tests.
func (m *Metrics) Requests(method, route string, status int) prometheus.Counter {
	return m.requests.WithLabelValues(method, route, strconv.Itoa(status))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
