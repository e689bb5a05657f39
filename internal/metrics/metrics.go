package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "aidetect"
)

var (
	detectDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

	// Detection Metrics
	DetectRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detect_requests_total",
		Help:      "Count of detect calls issued to the detection service.",
	}, []string{"status"})

	DetectDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "detect_duration_seconds",
		Help:      "Time taken for a detect call to complete.",
		Buckets:   detectDurationBuckets,
	}, []string{"status"})

	DetectInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "detect_in_flight",
		Help:      "Number of detect calls currently waiting on the detection service.",
	})

	DetectRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detect_rejected_total",
		Help:      "Count of submit attempts rejected before any network call.",
	}, []string{"reason"})

	// Health Probe Metrics
	HealthProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "health_probes_total",
		Help:      "Count of startup health probes against the detection service.",
	}, []string{"status"})

	// Session Metrics
	ControllersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "controllers_active",
		Help:      "Number of live per-session detection controllers.",
	})

	ControllersEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "controllers_evicted_total",
		Help:      "Number of idle controllers torn down by the janitor.",
	})

	PreviewsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "previews_stored",
		Help:      "Number of image previews currently held in memory.",
	})
)
