package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the analysis collectors, apart from the default prometheus registry.
var Registry = prometheus.NewRegistry()

var (
	FramesAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neubio",
			Subsystem: "epsp",
			Name:      "frames_analyzed_total",
			Help:      "Frames that produced a slope estimate",
		},
		[]string{"group"},
	)
	FramesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neubio",
			Subsystem: "epsp",
			Name:      "frames_failed_total",
			Help:      "Frames skipped because peak detection or slope extraction failed",
		},
		[]string{"group", "reason"},
	)
	FramesDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neubio",
			Subsystem: "epsp",
			Name:      "frames_discarded_total",
			Help:      "Frames whose slope fit correlation was below the acceptance threshold",
		},
		[]string{"group"},
	)

	Correlation = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "neubio",
			Subsystem: "epsp",
			Name:      "slope_correlation",
			Help:      "Absolute correlation coefficient of the slope fits",
			Buckets:   prometheus.LinearBuckets(0.5, 0.05, 10),
		},
		[]string{"group"},
	)
	Slope = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "neubio",
			Subsystem: "epsp",
			Name:      "slope",
			Help:      "Summary of the accepted EPSP slopes of a group, per pulse",
		},
		[]string{"group", "pulse", "stat"},
	)
	Amplitude = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "neubio",
			Subsystem: "epsp",
			Name:      "amplitude",
			Help:      "Summary of the accepted EPSP amplitudes of a group, per pulse",
		},
		[]string{"group", "pulse", "stat"},
	)

	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "neubio",
			Subsystem: "batch",
			Name:      "run_duration_seconds",
			Help:      "Time spent analyzing a group of frames",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"group"},
	)
)

func init() {
	Registry.MustRegister(FramesAnalyzed, FramesFailed, FramesDiscarded, Correlation, Slope, Amplitude, RunDuration)
}

// WriteTextfile dumps the registry in the node exporter textfile collector format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
