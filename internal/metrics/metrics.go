// Package metrics registers the process's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	RateLimited     prometheus.Counter
	UpstreamErrors  *prometheus.CounterVec
	CacheRefreshes  prometheus.Counter
	RefreshDuration prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coinoracle",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coinoracle",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coinoracle",
			Name:      "upstream_errors_total",
			Help:      "Failed upstream fetches by source.",
		}, []string{"source"}),
		CacheRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coinoracle",
			Name:      "cache_refreshes_total",
			Help:      "Aggregation cycles triggered by cache expiry.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coinoracle",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of one aggregation cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.HTTPRequests, m.RateLimited, m.UpstreamErrors, m.CacheRefreshes, m.RefreshDuration)
	}
	return m
}

// ObserveUpstreamError is nil-safe so callers need not branch on metrics
// being wired.
func (m *Metrics) ObserveUpstreamError(source string) {
	if m != nil {
		m.UpstreamErrors.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) ObserveRefresh(seconds float64) {
	if m != nil {
		m.CacheRefreshes.Inc()
		m.RefreshDuration.Observe(seconds)
	}
}

func (m *Metrics) ObserveRequest(route, status string) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, status).Inc()
	}
}

func (m *Metrics) ObserveRateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}
