package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the board service.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	MutationsTotal   *prometheus.CounterVec // outcome: confirmed, rolled_back, rejected_<kind>
	MutationsPending prometheus.Gauge
	RemoteDuration   *prometheus.HistogramVec // result: ok, error

	SyncRunsTotal *prometheus.CounterVec // status: ok, error
	CachedLeads   prometheus.Gauge

	RosterCacheHits   prometheus.Counter
	RosterCacheMisses prometheus.Counter

	StreamSubscribers prometheus.Gauge
}

// New registers every collector on a fresh registry, so several instances can coexist in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "mutations",
			Name:      "total",
			Help:      "Stage changes by outcome.",
		}, []string{"outcome"}),
		MutationsPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pipeline",
			Subsystem: "mutations",
			Name:      "in_flight",
			Help:      "Optimistic stage changes waiting for the upstream answer.",
		}),
		RemoteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pipeline",
			Subsystem: "upstream",
			Name:      "stage_update_duration_seconds",
			Help:      "Latency of PUT /leads/{id}/stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		SyncRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Lead cache refreshes by status.",
		}, []string{"status"}),
		CachedLeads: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pipeline",
			Subsystem: "sync",
			Name:      "cached_leads",
			Help:      "Leads held in the working set.",
		}),
		RosterCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "roster",
			Name:      "cache_hits_total",
			Help:      "Team roster lookups served from Redis.",
		}),
		RosterCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pipeline",
			Subsystem: "roster",
			Name:      "cache_misses_total",
			Help:      "Team roster lookups that went to GET /users.",
		}),
		StreamSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pipeline",
			Subsystem: "stream",
			Name:      "subscribers",
			Help:      "Open board websocket subscriptions.",
		}),
	}
}

func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) MutationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PendingInc() {
	if m == nil {
		return
	}
	m.MutationsPending.Inc()
}

func (m *Metrics) PendingDec() {
	if m == nil {
		return
	}
	m.MutationsPending.Dec()
}

func (m *Metrics) ObserveRemote(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.RemoteDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) SyncRun(ok bool, cached int) {
	if m == nil {
		return
	}
	if !ok {
		m.SyncRunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.SyncRunsTotal.WithLabelValues("ok").Inc()
	m.CachedLeads.Set(float64(cached))
}

func (m *Metrics) RosterLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.RosterCacheHits.Inc()
		return
	}
	m.RosterCacheMisses.Inc()
}

func (m *Metrics) SubscriberDelta(delta int) {
	if m == nil {
		return
	}
	m.StreamSubscribers.Add(float64(delta))
}
