// Package metrics exposes Prometheus instrumentation for the upload pipeline
// and the retention sweeper.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives observations from the upload path and the sweeper.
type Recorder interface {
	ObserveUpload(mode, status string, durationSeconds float64, sizeBytes int)
	ObserveSweep(deleted, failed int)
}

// Noop implements Recorder without emitting anything.
type Noop struct{}

func (Noop) ObserveUpload(string, string, float64, int) {}
func (Noop) ObserveSweep(int, int)                      {}

// Prom implements Recorder backed by Prometheus collectors.
type Prom struct {
	uploadsTotal   *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
	uploadBytes    prometheus.Histogram
	sweepRuns      prometheus.Counter
	sweepDeleted   prometheus.Counter
	sweepErrors    prometheus.Counter
	once           sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload requests by storage mode and outcome",
		}, []string{"mode", "status"}),
		uploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "End-to-end upload handling time by storage mode",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of normalized artifacts in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_runs_total",
			Help:      "Completed retention sweeps",
		}),
		sweepDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_deleted_total",
			Help:      "Artifacts deleted by the retention sweeper",
		}),
		sweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_errors_total",
			Help:      "Per-entry failures during retention sweeps",
		}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(
			p.uploadsTotal, p.uploadDuration, p.uploadBytes,
			p.sweepRuns, p.sweepDeleted, p.sweepErrors,
		)
	})
}

func (p *Prom) ObserveUpload(mode, status string, durationSeconds float64, sizeBytes int) {
	p.uploadsTotal.WithLabelValues(mode, status).Inc()
	p.uploadDuration.WithLabelValues(mode).Observe(durationSeconds)
	if sizeBytes > 0 {
		p.uploadBytes.Observe(float64(sizeBytes))
	}
}

func (p *Prom) ObserveSweep(deleted, failed int) {
	p.sweepRuns.Inc()
	p.sweepDeleted.Add(float64(deleted))
	p.sweepErrors.Add(float64(failed))
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
