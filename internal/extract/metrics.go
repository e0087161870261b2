package extract

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for extraction runs. A nil *Metrics
// records nothing.
type Metrics struct {
	Channels     *prometheus.CounterVec
	Files        *prometheus.CounterVec
	DecodedBytes prometheus.Counter
	RunDuration  prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	channels := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kdfx_channels_total",
		Help: "Channels processed, by outcome",
	}, []string{"status"})

	files := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kdfx_files_written_total",
		Help: "Output files written, by kind and outcome",
	}, []string{"kind", "status"})

	decodedBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kdfx_decoded_bytes_total",
		Help: "Raw channel bytes decoded",
	})

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kdfx_extraction_duration_seconds",
		Help:    "Wall time of whole-file extractions",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	reg.MustRegister(channels, files, decodedBytes, runDuration)

	return &Metrics{
		Channels:     channels,
		Files:        files,
		DecodedBytes: decodedBytes,
		RunDuration:  runDuration,
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

func (m *Metrics) channelDone(err error) {
	if m == nil {
		return
	}
	m.Channels.WithLabelValues(statusLabel(err)).Inc()
}

func (m *Metrics) fileWritten(kind string, err error) {
	if m == nil {
		return
	}
	m.Files.WithLabelValues(kind, statusLabel(err)).Inc()
}

func (m *Metrics) decoded(n int) {
	if m == nil {
		return
	}
	m.DecodedBytes.Add(float64(n))
}

func (m *Metrics) observeRun(start time.Time) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(time.Since(start).Seconds())
}
