package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters of one batch run. They live in their own
// registry and are written as a node-exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	StormsProcessed *prometheus.CounterVec // labels: status={ok,skipped,failed}
	FiguresRendered *prometheus.CounterVec // labels: kind={interactive,static}
	StormDuration   prometheus.Histogram
	LastRun         prometheus.Gauge
}

// NewMetrics creates and registers the batch metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StormsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stormplot",
			Name:      "storms_processed_total",
			Help:      "Storms processed by outcome.",
		}, []string{"status"}),
		FiguresRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stormplot",
			Name:      "figures_rendered_total",
			Help:      "Chart files written by kind.",
		}, []string{"kind"}),
		StormDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stormplot",
			Name:      "storm_duration_seconds",
			Help:      "Time to process one storm.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stormplot",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last batch finished.",
		}),
	}

	m.registry.MustRegister(
		m.StormsProcessed,
		m.FiguresRendered,
		m.StormDuration,
		m.LastRun,
	)

	return m
}

// Observe records the outcome of one storm.
func (m *Metrics) Observe(r Result) {
	m.StormsProcessed.WithLabelValues(string(r.Status)).Inc()
	m.FiguresRendered.WithLabelValues("interactive").Add(float64(len(r.Pages)))
	m.FiguresRendered.WithLabelValues("static").Add(float64(len(r.Images)))
	m.StormDuration.Observe(r.Duration.Seconds())
}

// WriteTextfile writes all metrics to filename.
func (m *Metrics) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics %s: %w", filename, err)
	}
	return nil
}
