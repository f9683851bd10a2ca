package telemetry

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics owns a private Prometheus registry with the HTTP and business collectors.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge

	ordersPlacedTotal  *prometheus.CounterVec
	orderRevenueTotal  prometheus.Counter
	orderStatusChanges *prometheus.CounterVec
	usersRegistered    *prometheus.CounterVec
	domainEventsTotal  *prometheus.CounterVec
	eventPublishErrors *prometheus.CounterVec
}

// NewMetrics registers every collector under namespace
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	m.ordersPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Orders created at checkout.",
	}, []string{"coupon"})

	m.orderRevenueTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "revenue_total",
		Help:      "Sum of placed order totals.",
	})

	m.orderStatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "status_changes_total",
		Help:      "Order status transitions.",
	}, []string{"from", "to"})

	m.usersRegistered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "users",
		Name:      "registered_total",
		Help:      "Accounts created.",
	}, []string{"role"})

	m.domainEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "dispatched_total",
		Help:      "Domain events dispatched on the in-process bus.",
	}, []string{"event_type"})

	m.eventPublishErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "publish_errors_total",
		Help:      "Domain events that failed to reach the external broker.",
	}, []string{"event_type"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpInFlight,
		m.ordersPlacedTotal,
		m.orderRevenueTotal,
		m.orderStatusChanges,
		m.usersRegistered,
		m.domainEventsTotal,
		m.eventPublishErrors,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterDBStats exports connection pool statistics for db
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// IncInFlight marks a request as started and returns the matching decrement
func (m *Metrics) IncInFlight() func() {
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}

// ObserveHTTPRequest records one finished request. route is the matched
// route template so path parameters do not explode cardinality.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordOrderPlaced counts a new order and adds its total to revenue
func (m *Metrics) RecordOrderPlaced(total decimal.Decimal, withCoupon bool) {
	label := "false"
	if withCoupon {
		label = "true"
	}
	m.ordersPlacedTotal.WithLabelValues(label).Inc()
	m.orderRevenueTotal.Add(total.InexactFloat64())
}

// RecordOrderStatusChange counts a transition
func (m *Metrics) RecordOrderStatusChange(from, to string) {
	m.orderStatusChanges.WithLabelValues(from, to).Inc()
}

// RecordUserRegistered counts a new account for role
func (m *Metrics) RecordUserRegistered(role string) {
	m.usersRegistered.WithLabelValues(role).Inc()
}

// RecordDomainEvent counts a dispatched event
func (m *Metrics) RecordDomainEvent(eventType string) {
	m.domainEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordPublishError counts a failed broker write
func (m *Metrics) RecordPublishError(eventType string) {
	m.eventPublishErrors.WithLabelValues(eventType).Inc()
}
