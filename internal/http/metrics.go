package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pdv/internal/middleware/ratelimit"
	"pdv/internal/middleware/trace"
	"pdv/internal/session"
)

const metricsNamespace = "pdv"

// appMetrics owns a private registry so tests can build many servers.
type appMetrics struct {
	registry *prometheus.Registry
	uptime   time.Time

	salesRecorded prometheus.Counter
	salesRejected prometheus.Counter
	notesAdded    prometheus.Counter
}

func newAppMetrics(store *session.Store, tm *trace.Middleware, rl *ratelimit.Limiter) *appMetrics {
	m := &appMetrics{
		registry: prometheus.NewRegistry(),
		uptime:   time.Now(),
		salesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sales_recorded_total",
			Help:      "Total number of sales recorded.",
		}),
		salesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sales_rejected_total",
			Help:      "Total number of sales rejected by validation.",
		}),
		notesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notes_added_total",
			Help:      "Total number of notes added.",
		}),
	}

	m.registry.MustRegister(
		m.salesRecorded,
		m.salesRejected,
		m.notesAdded,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, func() float64 { return float64(tm.GetMetrics().TotalRequests) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_server_errors_total",
			Help:      "Total number of 5xx responses.",
		}, func() float64 { return float64(tm.GetMetrics().ServerErrors) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "http_average_response_seconds",
			Help:      "Moving average of response time.",
		}, func() float64 { return float64(tm.GetMetrics().AverageResponseTime) / 1e6 }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total rate limit hits.",
		}, func() float64 { return float64(rl.GetMetrics().TotalHits) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_rate_limit_clients",
			Help:      "Currently tracked rate limit clients.",
		}, func() float64 { return float64(rl.GetMetrics().ClientCount) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_sessions",
			Help:      "Currently live register sessions.",
		}, func() float64 {
			if store == nil {
				return 0
			}
			return float64(store.Len())
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "uptime_seconds",
			Help:      "Application uptime in seconds.",
		}, func() float64 { return time.Since(m.uptime).Seconds() }),
	)
	return m
}

func (m *appMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
