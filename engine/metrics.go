package engine

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the prometheus metrics for an engine. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Lines       prometheus.Counter
	Placements  prometheus.Counter
	Triggers    prometheus.Counter
	RunDuration prometheus.Histogram
	Enabled     prometheus.Gauge
}

// NewMetrics creates and registers the engine metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roast_runs_total",
				Help: "Total number of annotation runs",
			},
			[]string{"enabled"},
		),

		Lines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roast_lines_total",
			Help: "Total number of lines scanned by annotation runs",
		}),

		Placements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roast_placements_total",
			Help: "Total number of placements produced",
		}),

		Triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roast_triggers_total",
			Help: "Total number of change notifications received",
		}),

		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roast_run_duration_seconds",
			Help:    "Time spent in an annotation run in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),

		Enabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roast_enabled",
			Help: "Whether annotation is enabled (1) or disabled (0)",
		}),
	}

	reg.MustRegister(
		m.Runs,
		m.Lines,
		m.Placements,
		m.Triggers,
		m.RunDuration,
		m.Enabled,
	)

	return m
}

func (m *Metrics) observeRun(enabled bool, lines, placements int, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(strconv.FormatBool(enabled)).Inc()
	m.Lines.Add(float64(lines))
	m.Placements.Add(float64(placements))
	m.RunDuration.Observe(d.Seconds())
}

func (m *Metrics) trigger() {
	if m == nil {
		return
	}
	m.Triggers.Inc()
}

func (m *Metrics) setEnabled(enabled bool) {
	if m == nil {
		return
	}
	if enabled {
		m.Enabled.Set(1)
	} else {
		m.Enabled.Set(0)
	}
}
