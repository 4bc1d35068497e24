package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spec-kit/tenancy-service/internal/domain"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	tenancyOps      *prometheus.CounterVec
	contracts       *prometheus.GaugeVec
}

// NewMetrics registers collectors on reg. A nil reg uses a private registry,
// which keeps tests from colliding on the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tenancy_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_http_errors_total",
			Help: "HTTP errors by error code",
		}, []string{"method", "path", "code"}),
		tenancyOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tenancy_operations_total",
			Help: "Tenancy transitions by operation and result",
		}, []string{"operation", "result"}),
		contracts: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tenancy_contracts",
			Help: "Assigned contracts by window state as of the last monitor sweep",
		}, []string{"state"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, path, code).Inc()
}

// RecordTenancyOperation counts an assign/unassign attempt by result code.
func (m *Metrics) RecordTenancyOperation(operation, result string) {
	if m == nil {
		return
	}
	m.tenancyOps.WithLabelValues(operation, result).Inc()
}

// ContractCounts summarises contract windows observed in one sweep.
type ContractCounts struct {
	Active       int
	ExpiringSoon int
	Expired      int
	Upcoming     int
}

// Add classifies a single window.
func (c *ContractCounts) Add(w domain.ContractWindow) {
	switch {
	case w.IsActive:
		c.Active++
		if w.IsExpiringSoon {
			c.ExpiringSoon++
		}
	case w.DaysUntilExpiry <= 0:
		c.Expired++
	default:
		c.Upcoming++
	}
}

// SetContractCounts publishes the latest sweep.
func (m *Metrics) SetContractCounts(c ContractCounts) {
	if m == nil {
		return
	}
	m.contracts.WithLabelValues("active").Set(float64(c.Active))
	m.contracts.WithLabelValues("expiring_soon").Set(float64(c.ExpiringSoon))
	m.contracts.WithLabelValues("expired").Set(float64(c.Expired))
	m.contracts.WithLabelValues("upcoming").Set(float64(c.Upcoming))
}
