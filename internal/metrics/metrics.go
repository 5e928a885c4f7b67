package metrics

import (
	"net/http"
	"strconv"

	"github.com/PizzaHomicide/hlsplay/internal/player"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the Prometheus metrics of the playback session.  It implements player.Observer.
type Recorder struct {
	registry         *prometheus.Registry
	sessionsStarted  *prometheus.CounterVec
	engineErrors     *prometheus.CounterVec
	recoveries       *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec
	liveLatency      prometheus.Gauge
}

var _ player.Observer = (*Recorder)(nil)

// New creates and registers the playback metrics on a private registry
func New() *Recorder {
	registry := prometheus.NewRegistry()

	sessionsStarted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsplay_sessions_started_total",
		Help: "Total number of playback sessions started, by selected strategy",
	}, []string{"strategy"})
	engineErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsplay_engine_errors_total",
		Help: "Total number of engine errors, by category and fatality",
	}, []string{"category", "fatal"})
	recoveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsplay_recoveries_total",
		Help: "Total number of recovery decisions taken for fatal engine errors",
	}, []string{"action"})
	stateTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hlsplay_state_transitions_total",
		Help: "Total number of session state transitions",
	}, []string{"from", "to"})
	liveLatency := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hlsplay_live_latency_seconds",
		Help: "Most recent live latency estimate",
	})

	registry.MustRegister(
		sessionsStarted,
		engineErrors,
		recoveries,
		stateTransitions,
		liveLatency,
	)

	return &Recorder{
		registry:         registry,
		sessionsStarted:  sessionsStarted,
		engineErrors:     engineErrors,
		recoveries:       recoveries,
		stateTransitions: stateTransitions,
		liveLatency:      liveLatency,
	}
}

// SessionStarted implements player.Observer
func (r *Recorder) SessionStarted(strategy player.Strategy) {
	r.sessionsStarted.WithLabelValues(strategy.String()).Inc()
}

// StateChanged implements player.Observer.  Leaving a live session clears the latency gauge.
func (r *Recorder) StateChanged(from, to player.State) {
	r.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	if to == player.StateTerminated {
		r.liveLatency.Set(0)
	}
}

// EngineError implements player.Observer
func (r *Recorder) EngineError(category player.ErrorCategory, fatal bool) {
	r.engineErrors.WithLabelValues(string(category), strconv.FormatBool(fatal)).Inc()
}

// Recovery implements player.Observer
func (r *Recorder) Recovery(action player.Action) {
	r.recoveries.WithLabelValues(action.String()).Inc()
}

// LatencyObserved implements player.Observer
func (r *Recorder) LatencyObserved(seconds float64) {
	r.liveLatency.Set(seconds)
}

// Handler returns an http.Handler that serves the Prometheus metrics
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
