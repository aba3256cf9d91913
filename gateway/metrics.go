package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway's Prometheus instruments.
type Metrics struct {
	Requests         *prometheus.CounterVec
	DescribeDuration prometheus.Histogram
	DescribeTriples  prometheus.Histogram
	CacheMaxAge      prometheus.Histogram
	BadArguments     prometheus.Counter
	PublishFailures  prometheus.Counter
}

// NewMetrics creates and registers the gateway metrics. A nil registerer
// uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semgate",
			Name:      "requests_total",
			Help:      "Inbound HTTP requests by handler and status code.",
		}, []string{"handler", "status"}),
		DescribeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "semgate",
			Name:      "describe_duration_seconds",
			Help:      "End-to-end duration of the describe pipeline.",
			Buckets:   prometheus.DefBuckets,
		}),
		DescribeTriples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "semgate",
			Name:      "describe_triples",
			Help:      "Triples in materialized resource graphs.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		CacheMaxAge: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "semgate",
			Name:      "cache_max_age_seconds",
			Help:      "Cache lifetimes attached to responses.",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 6),
		}),
		BadArguments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "semgate",
			Name:      "bad_arguments_total",
			Help:      "Requests rejected for malformed instantiation arguments.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "semgate",
			Name:      "publish_failures_total",
			Help:      "Failed graph-ingest publish attempts.",
		}),
	}
	reg.MustRegister(m.Requests, m.DescribeDuration, m.DescribeTriples,
		m.CacheMaxAge, m.BadArguments, m.PublishFailures)
	return m
}
