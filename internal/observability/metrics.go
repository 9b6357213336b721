package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkspaceCollector bundles the Prometheus metrics for the tasking
// workspace: lock mutation outcomes, lock API latency, and the live
// gauges driven by the lock manager and the scene bridge. It satisfies
// the recorder interfaces those packages consume, so wiring it in is a
// single constructor argument.
type WorkspaceCollector struct {
	gatherer prometheus.Gatherer

	LockMutations  *prometheus.CounterVec
	LockAPILatency *prometheus.HistogramVec

	HardLocks        prometheus.Gauge
	PendingUpdates   prometheus.Gauge
	GhostDrawables   prometheus.Gauge
	HighlightApplies prometheus.Counter
}

// NewWorkspaceCollector registers the workspace metrics against the
// provided registerer, defaulting to the global Prometheus registry
// when nil.
func NewWorkspaceCollector(reg prometheus.Registerer) (*WorkspaceCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workspace_lock_mutations_total",
		Help: "Total lock mutations attempted, labeled by operation and outcome.",
	}, []string{"op", "outcome"})
	mutations, err := registerCounterVec(reg, mutations, "workspace_lock_mutations_total")
	if err != nil {
		return nil, err
	}

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workspace_lock_api_duration_seconds",
		Help:    "Lock API round-trip latency in seconds, labeled by operation.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"op"})
	latency, err = registerHistogramVec(reg, latency, "workspace_lock_api_duration_seconds")
	if err != nil {
		return nil, err
	}

	hardLocks, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "workspace_hard_locks",
		Help: "Current number of hard-locked acquisitions.",
	}), "workspace_hard_locks")
	if err != nil {
		return nil, err
	}
	pending, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "workspace_pending_lock_updates",
		Help: "Lock updates currently awaiting server confirmation.",
	}), "workspace_pending_lock_updates")
	if err != nil {
		return nil, err
	}
	ghosts, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "workspace_ghost_drawables",
		Help: "Synthetic ghost drawables currently live in the scene.",
	}), "workspace_ghost_drawables")
	if err != nil {
		return nil, err
	}

	applies := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workspace_highlight_applies_total",
		Help: "Total times a highlight set was applied to the scene.",
	})
	applies, err = registerCounter(reg, applies, "workspace_highlight_applies_total")
	if err != nil {
		return nil, err
	}

	return &WorkspaceCollector{
		gatherer:         gatherer,
		LockMutations:    mutations,
		LockAPILatency:   latency,
		HardLocks:        hardLocks,
		PendingUpdates:   pending,
		GhostDrawables:   ghosts,
		HighlightApplies: applies,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *WorkspaceCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordLockMutation counts one lock mutation attempt by operation and
// outcome.
func (c *WorkspaceCollector) RecordLockMutation(op, outcome string) {
	if c == nil || c.LockMutations == nil {
		return
	}
	c.LockMutations.WithLabelValues(op, outcome).Inc()
}

// SetLockCounts drives the hard-lock and pending gauges from the lock
// manager's current state.
func (c *WorkspaceCollector) SetLockCounts(hard, pending int) {
	if c == nil {
		return
	}
	if c.HardLocks != nil {
		c.HardLocks.Set(float64(hard))
	}
	if c.PendingUpdates != nil {
		c.PendingUpdates.Set(float64(pending))
	}
}

// ObserveLockAPILatency records one lock API round trip.
func (c *WorkspaceCollector) ObserveLockAPILatency(op string, seconds float64) {
	if c == nil || c.LockAPILatency == nil {
		return
	}
	c.LockAPILatency.WithLabelValues(op).Observe(seconds)
}

// RecordHighlightApply counts one applied highlight set.
func (c *WorkspaceCollector) RecordHighlightApply() {
	if c == nil || c.HighlightApplies == nil {
		return
	}
	c.HighlightApplies.Inc()
}

// SetGhostCount drives the live ghost gauge from the scene bridge.
func (c *WorkspaceCollector) SetGhostCount(n int) {
	if c == nil || c.GhostDrawables == nil {
		return
	}
	c.GhostDrawables.Set(float64(n))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
