// Package telemetry provides Prometheus metrics for the constraint
// engine and search driver. All recording methods are safe to call on a
// disabled (no-op) instance, so callers never need to branch on whether
// metrics are on.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gokando/tempnet/internal/config"
)

// Metrics collects engine and search instrumentation.
type Metrics struct {
	enabled  bool
	registry *prometheus.Registry

	propagationCycles    prometheus.Counter
	propagatorExecutions *prometheus.CounterVec
	agendaDepth          *prometheus.GaugeVec

	searchSteps        prometheus.Counter
	searchDuration     prometheus.Histogram
	decisionsOpened    *prometheus.CounterVec
	decisionsRetracted *prometheus.CounterVec

	stnShortestPathRuns prometheus.Counter
}

// NewMetrics creates a metrics collector. When cfg.Enabled is false it
// returns a no-op instance whose recording methods do nothing.
func NewMetrics(cfg config.MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{}
	}
	ns := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		enabled:  true,
		registry: registry,
		propagationCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "propagation_cycles_total",
			Help:      "Total number of propagation cycles run to quiescence or inconsistency",
		}),
		propagatorExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "propagator_executions_total",
			Help:      "Total propagator execution steps",
		}, []string{"propagator"}),
		agendaDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "agenda_depth",
			Help:      "Current pending-constraint count per propagator",
		}, []string{"propagator"}),
		searchSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "search_steps_total",
			Help:      "Total commit+propagate search steps",
		}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "search_duration_seconds",
			Help:      "Wall-clock duration of completed search runs",
			Buckets:   prometheus.DefBuckets,
		}),
		decisionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "decisions_opened_total",
			Help:      "Decision points opened, by decision kind",
		}, []string{"kind"}),
		decisionsRetracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "decisions_retracted_total",
			Help:      "Decision commits undone during backtracking, by decision kind",
		}, []string{"kind"}),
		stnShortestPathRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "stn_shortest_path_runs_total",
			Help:      "Shortest-path recomputations of the temporal network",
		}),
	}

	registry.MustRegister(
		m.propagationCycles, m.propagatorExecutions, m.agendaDepth,
		m.searchSteps, m.searchDuration,
		m.decisionsOpened, m.decisionsRetracted,
		m.stnShortestPathRuns,
	)
	return m
}

// Handler returns an HTTP handler exposing the registry, or nil when
// metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil || !m.enabled {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) PropagationCycle() {
	if m == nil || !m.enabled {
		return
	}
	m.propagationCycles.Inc()
}

func (m *Metrics) PropagatorExecuted(name string) {
	if m == nil || !m.enabled {
		return
	}
	m.propagatorExecutions.WithLabelValues(name).Inc()
}

func (m *Metrics) SetAgendaDepth(name string, depth int) {
	if m == nil || !m.enabled {
		return
	}
	m.agendaDepth.WithLabelValues(name).Set(float64(depth))
}

func (m *Metrics) SearchStep() {
	if m == nil || !m.enabled {
		return
	}
	m.searchSteps.Inc()
}

func (m *Metrics) SearchFinished(seconds float64) {
	if m == nil || !m.enabled {
		return
	}
	m.searchDuration.Observe(seconds)
}

func (m *Metrics) DecisionOpened(kind string) {
	if m == nil || !m.enabled {
		return
	}
	m.decisionsOpened.WithLabelValues(kind).Inc()
}

func (m *Metrics) DecisionRetracted(kind string) {
	if m == nil || !m.enabled {
		return
	}
	m.decisionsRetracted.WithLabelValues(kind).Inc()
}

func (m *Metrics) ShortestPathRun() {
	if m == nil || !m.enabled {
		return
	}
	m.stnShortestPathRuns.Inc()
}
