// Package telemetry provides opt-in Prometheus instrumentation of harness
// runs. It is safe to call from anywhere: when disabled (the default), every
// public function is a no-op, so library code and tests pay nothing.
//
// Notes:
//   - MetricsAddr, when non-empty, starts a dedicated HTTP server serving
//     /metrics. If you already expose Prometheus elsewhere, leave it empty
//     and register promhttp yourself.
//   - Metrics are global with bounded label cardinality (experiment and
//     variant labels only, both drawn from a small fixed registry).
package telemetry

import (
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls the telemetry module.
type Config struct {
	Enabled     bool
	MetricsAddr string // e.g. ":9190"; empty disables the standalone endpoint
}

var (
	modEnabled atomic.Bool

	experimentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "membench_experiments_total",
		Help: "Total experiment variants executed, by experiment name",
	}, []string{"experiment"})
	failuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "membench_experiment_failures_total",
		Help: "Total experiment variants that failed (allocation, topology or construction errors)",
	}, []string{"experiment"})
	bytesAcquiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "membench_bytes_acquired_total",
		Help: "Total payload bytes acquired across all experiment runs",
	})
	durationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "membench_experiment_duration_seconds",
		Help:    "Measured wall-clock duration of successful experiment variants",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	}, []string{"experiment", "variant"})
)

func init() {
	// Eager registration is harmless when no endpoint is ever exposed.
	prometheus.MustRegister(experimentsTotal, failuresTotal, bytesAcquiredTotal, durationSeconds)
}

// Enable configures the module. Safe to call multiple times; later calls
// replace the config.
func Enable(cfg Config) {
	modEnabled.Store(cfg.Enabled)
	if !cfg.Enabled || cfg.MetricsAddr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Printf("telemetry: metrics endpoint on %s stopped: %v", cfg.MetricsAddr, err)
		}
	}()
}

// Enabled reports whether observation calls currently record anything.
func Enabled() bool { return modEnabled.Load() }

// ObserveVariant records one executed variant of an experiment.
func ObserveVariant(experiment, variant string, elapsed time.Duration, failed bool) {
	if !modEnabled.Load() {
		return
	}
	experimentsTotal.WithLabelValues(experiment).Inc()
	if failed {
		failuresTotal.WithLabelValues(experiment).Inc()
		return
	}
	durationSeconds.WithLabelValues(experiment, variant).Observe(elapsed.Seconds())
}

// ObserveBytes records payload bytes acquired for a run.
func ObserveBytes(n int64) {
	if !modEnabled.Load() {
		return
	}
	if n > 0 {
		bytesAcquiredTotal.Add(float64(n))
	}
}
