package shipstation

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records ShipStation API calls.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// NewMetrics registers the client metrics on the provided registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipstation_requests_total",
		Help: "ShipStation API requests by operation and HTTP status.",
	}, []string{"op", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipstation_request_duration_seconds",
		Help:    "Duration of ShipStation API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipstation_cache_lookups_total",
		Help: "Reference data cache lookups by kind and result.",
	}, []string{"kind", "result"})
	reg.MustRegister(requests, duration, cache)
	return &Metrics{
		requests: requests,
		duration: duration,
		cache:    cache,
	}
}

func (m *Metrics) observe(op string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(op, label).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) cacheLookup(kind string, hit bool) {
	if m == nil || m.cache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(kind, result).Inc()
}
