package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	close(ch)
	var out dto.Metric
	require.NoError(t, (<-ch).Write(&out))
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveReplay(time.Now(), nil)
	m.ObserveReplay(time.Now(), errors.New("bad"))
	m.IncrementMeasurementsSampled("memo", 2)
	m.IncrementMeasurementsSampled("memo", 0)
	m.IncrementCouplingApproximated(3)
	m.IncrementSessionsCreated()
	m.AddSessionsDeleted("stale", 4)
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()

	assert.Equal(t, 1.0, value(t, m.Replays.WithLabelValues("ok")))
	assert.Equal(t, 1.0, value(t, m.Replays.WithLabelValues("error")))
	assert.Equal(t, 2.0, value(t, m.MeasurementsSampled.WithLabelValues("memo")))
	assert.Equal(t, 3.0, value(t, m.CouplingApproximated))
	assert.Equal(t, 1.0, value(t, m.SessionsCreated))
	assert.Equal(t, 4.0, value(t, m.SessionsDeleted.WithLabelValues("stale")))
	assert.Equal(t, 1.0, value(t, m.PlaybackStreams))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "bloch_replay_duration_seconds")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveReplay(time.Now(), nil)
		m.IncrementMeasurementsSampled("adhoc", 1)
		m.IncrementCouplingApproximated(1)
		m.IncrementSessionsCreated()
		m.AddSessionsDeleted("user", 1)
		m.StreamOpened()
		m.StreamClosed()
	})
}
