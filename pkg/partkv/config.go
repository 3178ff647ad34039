package partkv

import (
	"github.com/prometheus/client_golang/prometheus"
)

// cfg holds everything an Opt can configure. It is unexported; callers only
// ever see the Opt functions below, mirroring the teacher's cfg/Opt split.
type cfg struct {
	ringGroupName     string
	numConcurrentGets int

	logger    Logger
	reg       prometheus.Registerer
	metricsNS string

	// maxBulkInFlight bounds how many getBulk sub-tasks may be queued
	// against the shared executor at once. The bound is one semaphore shared
	// by every getBulk call on the Handler; it is not a separate allowance
	// per call. Zero means unbounded (a single huge bulk call can occupy the
	// whole pool).
	maxBulkInFlight int
}

func newCfg(opts ...Opt) cfg {
	c := cfg{
		numConcurrentGets: 16,
		logger:            nopLogger{},
		reg:               prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt.apply(&c)
	}
	return c
}

// Opt configures a Handler at construction time via HandlerAssembler.
type Opt interface {
	apply(*cfg)
}

type opt struct{ fn func(*cfg) }

func (o opt) apply(c *cfg) { o.fn(c) }

// WithRingGroupName selects the cluster scope this host belongs to. Required.
func WithRingGroupName(name string) Opt {
	return opt{func(c *cfg) { c.ringGroupName = name }}
}

// WithNumConcurrentGets sets the fixed worker-pool size, which also bounds
// peak in-flight reads. Defaults to 16; must be positive.
func WithNumConcurrentGets(n int) Opt {
	return opt{func(c *cfg) { c.numConcurrentGets = n }}
}

// WithLogger installs a structured Logger. Defaults to a no-op logger.
func WithLogger(l Logger) Opt {
	return opt{func(c *cfg) { c.logger = l }}
}

// WithRegisterer installs the prometheus.Registerer advisory counters and
// latency histograms are registered against. Defaults to the global
// DefaultRegisterer. Pass prometheus.NewRegistry() in tests to avoid
// collisions between Handler instances.
func WithRegisterer(r prometheus.Registerer) Opt {
	return opt{func(c *cfg) { c.reg = r }}
}

// WithMetricsNamespace sets the Prometheus namespace prefix for exported
// counters and histograms. Defaults to "partkv".
func WithMetricsNamespace(ns string) Opt {
	return opt{func(c *cfg) { c.metricsNS = ns }}
}

// WithMaxBulkInFlight caps how many getBulk sub-tasks may be queued
// against the shared RequestExecutor simultaneously, so bulk requests
// cannot starve concurrently submitted single-key gets. The cap is shared
// by all concurrent getBulk calls on a Handler; it is not applied per
// call. Zero (the default) leaves bulk calls unbounded, matching
// spec.md's bare "submit one task per key, preserving input order by
// index" (see DESIGN.md Open Question resolution).
func WithMaxBulkInFlight(n int) Opt {
	return opt{func(c *cfg) { c.maxBulkInFlight = n }}
}
