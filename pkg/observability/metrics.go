package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Billing operation metrics
	SubscriptionsCreatedTotal  *prometheus.CounterVec
	SubscriptionsModifiedTotal *prometheus.CounterVec
	InvoicesCreatedTotal       *prometheus.CounterVec
	InvoiceStatusUpdatesTotal  *prometheus.CounterVec
	BillingErrorsTotal         *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive    prometheus.Gauge
	DBConnectionsIdle      prometheus.Gauge
	DBConnectionsWaitCount prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billfold_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billfold_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SubscriptionsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billfold_subscriptions_created_total",
				Help: "Subscriptions created, by initial status",
			},
			[]string{"status"},
		),
		SubscriptionsModifiedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billfold_subscriptions_modified_total",
				Help: "Subscription modifications, by kind (plan_change, cancel, update)",
			},
			[]string{"kind"},
		),
		InvoicesCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billfold_invoices_created_total",
				Help: "Invoices created, by reason (initial, proration)",
			},
			[]string{"reason"},
		),
		InvoiceStatusUpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billfold_invoice_status_updates_total",
				Help: "Invoice payment-status transitions, by new status",
			},
			[]string{"status"},
		),
		BillingErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billfold_billing_errors_total",
				Help: "Billing operation failures, by error code",
			},
			[]string{"code"},
		),
		DBConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "billfold_db_connections_active",
			Help: "Active database connections",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "billfold_db_connections_idle",
			Help: "Idle database connections",
		}),
		DBConnectionsWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "billfold_db_connections_wait_count",
			Help: "Cumulative connections waited for",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SubscriptionsCreatedTotal,
		m.SubscriptionsModifiedTotal,
		m.InvoicesCreatedTotal,
		m.InvoiceStatusUpdatesTotal,
		m.BillingErrorsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps an http.Handler with request counting and timing.
// The path label uses the route template, not the raw URL, to bound
// cardinality.
func (m *Metrics) InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// CollectDBStats copies sql.DB pool statistics into the gauges. Intended to
// be called periodically from the health loop.
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
}
