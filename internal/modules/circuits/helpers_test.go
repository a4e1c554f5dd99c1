package circuits

import (
	"testing"
	"time"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
	testingpkg "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/testing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fixedSampler float64

func (f fixedSampler) Float64() float64 { return float64(f) }

func newSession(qubits, steps int) *Session {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Session{
		ID:        uuid.NewString(),
		Name:      "test",
		Circuit:   replay.NewCircuit(qubits, steps),
		Cursor:    -1,
		Outcomes:  quantum.NewOutcomeTable(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "circuits")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), zerolog.Nop())
}

type recordedMetrics struct {
	replays      int
	replayErrors int
	sampled      map[string]int
	approximated int
	created      int
	deleted      map[string]int64
}

func newRecordedMetrics() *recordedMetrics {
	return &recordedMetrics{sampled: map[string]int{}, deleted: map[string]int64{}}
}

func (m *recordedMetrics) ObserveReplay(_ time.Time, err error) {
	m.replays++
	if err != nil {
		m.replayErrors++
	}
}

func (m *recordedMetrics) IncrementMeasurementsSampled(source string, count int) {
	m.sampled[source] += count
}

func (m *recordedMetrics) IncrementCouplingApproximated(count int) { m.approximated += count }
func (m *recordedMetrics) IncrementSessionsCreated()               { m.created++ }

func (m *recordedMetrics) AddSessionsDeleted(reason string, count int64) {
	m.deleted[reason] += count
}

// newTestService wires a service over a migrated database. The sampler always
// draws 0.1, so an even superposition reads 0.
func newTestService(t *testing.T) (*Service, *recordedMetrics) {
	t.Helper()
	catalog := quantum.NewCatalog()
	engine := replay.NewEngine(catalog, zerolog.Nop(), replay.WithSampler(fixedSampler(0.1)))
	m := newRecordedMetrics()
	svc := NewService(newTestRepository(t), NewEditor(catalog, replay.MaxQubits), engine, m, zerolog.Nop())
	return svc, m
}

func createBell(t *testing.T, svc *Service) *Session {
	t.Helper()
	sess, err := svc.Create(CreateRequest{Name: "bell", SeedReference: true})
	require.NoError(t, err)
	return sess
}
