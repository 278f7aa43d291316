// Package metrics holds the Prometheus collectors of descriptor builds.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

var (
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrbuild_builds_total",
			Help: "Number of descriptor builds by module and result",
		},
		[]string{"module", "success"},
	)

	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrbuild_build_duration_seconds",
			Help:    "Descriptor build duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"module"},
	)

	GeneratedDescriptors = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scrbuild_generated_descriptors",
			Help: "Number of descriptors generated by the last build of a module",
		},
		[]string{"module"},
	)

	RemovedDescriptors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrbuild_removed_descriptors_total",
			Help: "Number of stale descriptors deleted",
		},
		[]string{"module"},
	)

	Diagnostics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrbuild_diagnostics_total",
			Help: "Number of diagnostics reported by severity",
		},
		[]string{"module", "severity"},
	)

	LastBuildEnd = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scrbuild_last_build_end_timestamp",
			Help: "Unix timestamp of when the last build of a module ended",
		},
		[]string{"module"},
	)
)

// ObserveBuild records the outcome of one module build
func ObserveBuild(module string, success bool, duration time.Duration, generated, removed int) {
	BuildsTotal.WithLabelValues(module, strconv.FormatBool(success)).Inc()
	BuildDuration.WithLabelValues(module).Observe(duration.Seconds())
	GeneratedDescriptors.WithLabelValues(module).Set(float64(generated))
	RemovedDescriptors.WithLabelValues(module).Add(float64(removed))
	LastBuildEnd.WithLabelValues(module).SetToCurrentTime()
}

// ObserveDiagnostics adds the warnings and errors a build collected
func ObserveDiagnostics(module string, c *diagnostics.Collector) {
	for _, level := range []diagnostics.Level{diagnostics.LevelWarn, diagnostics.LevelError} {
		if n := c.Count(level); n > 0 {
			Diagnostics.WithLabelValues(module, level.String()).Add(float64(n))
		}
	}
}

// WriteTextfile dumps every registered metric in the node exporter
// textfile-collector format
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
