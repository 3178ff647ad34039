package partkv

import "github.com/prometheus/client_golang/prometheus"

// metrics bundles the advisory, non-authoritative counters and timers this
// package exposes. Nothing here participates in correctness: a counter
// update that races or is lost never changes what get/getBulk return
// (spec section 5, section 8).
type metrics struct {
	partitionHits   *prometheus.CounterVec
	partitionMisses *prometheus.CounterVec
	partitionErrors *prometheus.CounterVec
	getLatency      prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	m := &metrics{
		partitionHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_hits_total",
			Help:      "Advisory count of successful reads per partition. Not part of the serving contract.",
		}, []string{"domain", "partition"}),
		partitionMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_misses_total",
			Help:      "Advisory count of not-found reads per partition.",
		}, []string{"domain", "partition"}),
		partitionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partition_errors_total",
			Help:      "Advisory count of I/O failures per partition.",
		}, []string{"domain", "partition"}),
		getLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "get_latency_seconds",
			Help:      "End-to-end latency of Handler.get, including queueing.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		// Registration failures (e.g. a second Handler sharing the default
		// registerer) are swallowed: metrics are advisory, per spec section 7's
		// "runtime - swallowed" category.
		_ = reg.Register(m.partitionHits)
		_ = reg.Register(m.partitionMisses)
		_ = reg.Register(m.partitionErrors)
		_ = reg.Register(m.getLatency)
	}
	return m
}
