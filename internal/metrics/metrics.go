// Package metrics provides prometheus collectors for the simulation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks replay volume and latency, measurement sampling and session
// lifecycle. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Replays              *prometheus.CounterVec
	ReplayDuration       prometheus.Histogram
	MeasurementsSampled  *prometheus.CounterVec
	CouplingApproximated prometheus.Counter
	SessionsCreated      prometheus.Counter
	SessionsDeleted      *prometheus.CounterVec
	PlaybackStreams      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Replays: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloch_replays_total",
			Help: "Total number of circuit replays by result",
		}, []string{"result"}),
		ReplayDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloch_replay_duration_seconds",
			Help:    "Duration of circuit replays",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		MeasurementsSampled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloch_measurements_sampled_total",
			Help: "Measurement outcomes drawn, by source (memo or adhoc)",
		}, []string{"source"}),
		CouplingApproximated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloch_coupling_approximations_total",
			Help: "CX operations replayed through the classical-mixture approximation",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloch_sessions_created_total",
			Help: "Total number of circuit sessions created",
		}),
		SessionsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloch_sessions_deleted_total",
			Help: "Circuit sessions deleted, by reason (user or stale)",
		}, []string{"reason"}),
		PlaybackStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bloch_playback_streams",
			Help: "Open playback websocket streams",
		}),
	}
}

// ObserveReplay records a replay started at start.
func (m *Metrics) ObserveReplay(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Replays.WithLabelValues(result).Inc()
	m.ReplayDuration.Observe(time.Since(start).Seconds())
}

// IncrementMeasurementsSampled records count fresh draws from source.
func (m *Metrics) IncrementMeasurementsSampled(source string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.MeasurementsSampled.WithLabelValues(source).Add(float64(count))
}

// IncrementCouplingApproximated records count approximated CX operations.
func (m *Metrics) IncrementCouplingApproximated(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.CouplingApproximated.Add(float64(count))
}

// IncrementSessionsCreated records a new session.
func (m *Metrics) IncrementSessionsCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

// AddSessionsDeleted records count deleted sessions.
func (m *Metrics) AddSessionsDeleted(reason string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.SessionsDeleted.WithLabelValues(reason).Add(float64(count))
}

// StreamOpened marks a playback stream as open.
func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.PlaybackStreams.Inc()
}

// StreamClosed marks a playback stream as closed.
func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.PlaybackStreams.Dec()
}
