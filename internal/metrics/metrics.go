// Package metrics exposes prometheus counters for the frame loop and the
// actions it drives.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Frame results.
const (
	FrameObserved = "observed"
	FrameAbsent   = "absent"
	FrameError    = "error"
	FrameDisabled = "disabled"
)

var (
	registerOnce sync.Once

	frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airmouse",
			Name:      "frames_total",
			Help:      "Frames handled by the frame loop, by result.",
		},
		[]string{"result"},
	)
	frameDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "airmouse",
			Name:      "frame_duration_seconds",
			Help:      "Time spent detecting and processing one frame.",
			Buckets:   []float64{.001, .0025, .005, .01, .02, .033, .05, .1, .25},
		},
	)
	modeTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airmouse",
			Name:      "mode_transitions_total",
			Help:      "Mode changes, by the mode entered.",
		},
		[]string{"to"},
	)
	actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airmouse",
			Name:      "actions_total",
			Help:      "Discrete actions executed.",
		},
		[]string{"action"},
	)
	analogSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airmouse",
			Name:      "analog_steps_total",
			Help:      "Volume, brightness and scroll steps applied.",
		},
		[]string{"mode", "direction"},
	)
	sinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airmouse",
			Name:      "sink_errors_total",
			Help:      "Failed calls into OS sinks.",
		},
		[]string{"sink"},
	)
)

// Register adds all collectors to the default registry. It is safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(frames, frameDuration, modeTransitions, actions, analogSteps, sinkErrors)
	})
}

func RecordFrame(result string, duration time.Duration) {
	Register()
	frames.WithLabelValues(result).Inc()
	if result == FrameObserved || result == FrameAbsent {
		frameDuration.Observe(duration.Seconds())
	}
}

func RecordModeTransition(to string) {
	Register()
	modeTransitions.WithLabelValues(to).Inc()
}

func RecordAction(action string) {
	Register()
	actions.WithLabelValues(action).Inc()
}

func RecordAnalogStep(mode, direction string) {
	Register()
	analogSteps.WithLabelValues(mode, direction).Inc()
}

func RecordSinkError(sink string) {
	Register()
	sinkErrors.WithLabelValues(sink).Inc()
}
