package circuits

import (
	"testing"
	"time"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestService_Create(t *testing.T) {
	svc, m := newTestService(t)

	sess, err := svc.Create(CreateRequest{Name: "empty"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 2, sess.Circuit.Qubits)
	assert.Equal(t, DefaultSteps, sess.Circuit.Steps)
	assert.Equal(t, -1, sess.Cursor)
	assert.True(t, isEmpty(sess.Circuit))
	assert.Equal(t, 1, m.created)

	got, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "empty", got.Name)
}

func TestService_Create_SeedReference(t *testing.T) {
	svc, _ := newTestService(t)

	sess := createBell(t, svc)
	assert.Equal(t, quantum.GateH, sess.Circuit.Gate(0, 1))
	assert.Equal(t, quantum.GateMeasure, sess.Circuit.Gate(0, 5))
}

func TestService_Create_Invalid(t *testing.T) {
	svc, m := newTestService(t)

	tests := []CreateRequest{
		{Qubits: -1},
		{Qubits: replay.MaxQubits + 1},
		{Steps: -3},
		{Steps: MaxSteps + 1},
	}
	for _, req := range tests {
		_, err := svc.Create(req)
		assert.ErrorIs(t, err, ErrInvalidPlacement, "%+v", req)
	}
	assert.Zero(t, m.created)
}

func TestService_ReplayPersistsOutcomes(t *testing.T) {
	svc, m := newTestService(t)
	sess := createBell(t, svc)

	_, res, err := svc.Replay(sess.ID, intPtr(5))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.True(t, res.Events[0].Fresh)
	assert.Equal(t, 0, res.Events[0].Outcome)
	assert.Equal(t, 1, m.sampled["memo"])

	stored, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Outcomes.Len(), "fresh draws are persisted")

	_, again, err := svc.Replay(sess.ID, intPtr(7))
	require.NoError(t, err)
	require.Len(t, again.Events, 1)
	assert.False(t, again.Events[0].Fresh)
	assert.Equal(t, res.Events[0].Outcome, again.Events[0].Outcome)
	assert.Equal(t, 1, m.sampled["memo"])
	assert.Equal(t, 2, m.replays)
}

func TestService_ReplayDefaultsToCursor(t *testing.T) {
	svc, _ := newTestService(t)
	sess := createBell(t, svc)

	_, res, err := svc.Replay(sess.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, -1, res.Step)
	assert.Empty(t, res.Events)
}

func TestService_ReplayOutOfRange(t *testing.T) {
	svc, m := newTestService(t)
	sess := createBell(t, svc)

	_, _, err := svc.Replay(sess.ID, intPtr(DefaultSteps))
	assert.ErrorIs(t, err, replay.ErrStepOutOfRange)
	assert.Equal(t, 1, m.replayErrors)

	_, _, err = svc.Replay("missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Step(t *testing.T) {
	svc, _ := newTestService(t)
	sess := createBell(t, svc)

	var res *replay.Result
	var err error
	for i := 0; i < 6; i++ {
		sess, res, err = svc.Step(sess.ID, StepForward)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, sess.Cursor)
	assert.Equal(t, 5, res.Step)
	require.NotNil(t, res.Measured[0])
	assert.Equal(t, 0, *res.Measured[0])

	stored, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Cursor, "cursor is persisted")

	sess, res, err = svc.Step(sess.ID, StepBack)
	require.NoError(t, err)
	assert.Equal(t, 4, sess.Cursor)
	assert.True(t, res.Entangled)
	assert.Equal(t, 1, sess.Outcomes.Len(), "stepping back keeps the memo")

	sess, _, err = svc.Step(sess.ID, StepReset)
	require.NoError(t, err)
	assert.Equal(t, -1, sess.Cursor)
}

func TestService_EditInvalidatesOutcomes(t *testing.T) {
	svc, m := newTestService(t)
	sess := createBell(t, svc)

	_, _, err := svc.Replay(sess.ID, intPtr(5))
	require.NoError(t, err)

	sess, err = svc.PlaceGate(sess.ID, 1, 4, quantum.GateZ)
	require.NoError(t, err)
	assert.Zero(t, sess.Outcomes.Len())

	_, _, err = svc.Replay(sess.ID, intPtr(5))
	require.NoError(t, err)
	assert.Equal(t, 2, m.sampled["memo"], "the edited circuit samples again")
}

func TestService_Edits(t *testing.T) {
	svc, _ := newTestService(t)
	sess, err := svc.Create(CreateRequest{Qubits: 3, Steps: 6})
	require.NoError(t, err)

	_, err = svc.PlaceCX(sess.ID, 2, 2, 0)
	require.NoError(t, err)
	_, err = svc.SetInitial(sess.ID, 2, quantum.BasisOne)
	require.NoError(t, err)
	_, err = svc.ClearCell(sess.ID, 1, 0)
	require.NoError(t, err)

	_, res, err := svc.Replay(sess.ID, intPtr(2))
	require.NoError(t, err)
	assert.Equal(t, replay.Pair{A: 2, B: 0}, res.Pair)
	assert.InDelta(t, -1, res.Bloch[0].Z, 1e-9, "control |1⟩ flips qubit 0")

	sess, err = svc.Resize(sess.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Circuit.Qubits)
	assert.Empty(t, sess.Circuit.CXAt(2))

	_, err = svc.PlaceCX(sess.ID, 2, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidPlacement)
	_, err = svc.PlaceGate("missing", 0, 0, quantum.GateX)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ImportExport(t *testing.T) {
	svc, _ := newTestService(t)
	sess, err := svc.Create(CreateRequest{})
	require.NoError(t, err)

	c := replay.NewCircuit(1, 3)
	c.Gates[0][0] = quantum.GateX
	c.Gates[0][2] = quantum.GateMeasure
	_, err = svc.Import(sess.ID, c)
	require.NoError(t, err)

	out, err := svc.Export(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, c, out)

	_, res, err := svc.Replay(sess.ID, intPtr(2))
	require.NoError(t, err)
	require.NotNil(t, res.Measured[0])
	assert.Equal(t, 1, *res.Measured[0])
	assert.True(t, res.Pair.Phantom())
}

func TestService_ImportRejectsLongCircuit(t *testing.T) {
	svc, _ := newTestService(t)
	sess, err := svc.Create(CreateRequest{Qubits: 2, Steps: 4})
	require.NoError(t, err)

	_, err = svc.Import(sess.ID, replay.NewCircuit(2, MaxSteps+1))
	assert.ErrorIs(t, err, replay.ErrInvalidCircuit)

	stored, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Circuit.Steps)

	_, err = svc.Import(sess.ID, replay.NewCircuit(2, MaxSteps))
	assert.NoError(t, err)
}

func TestService_Rename(t *testing.T) {
	svc, _ := newTestService(t)
	sess, err := svc.Create(CreateRequest{Name: "a"})
	require.NoError(t, err)

	_, err = svc.Rename(sess.ID, "b")
	require.NoError(t, err)

	list, err := svc.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Name)
}

func TestService_Measure(t *testing.T) {
	svc, m := newTestService(t)
	sess := createBell(t, svc)
	for i := 0; i < 4; i++ {
		_, _, err := svc.Step(sess.ID, StepForward)
		require.NoError(t, err)
	}

	res, event, err := svc.Measure(sess.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, event.Qubit)
	assert.Equal(t, 0, event.Outcome)
	assert.InDelta(t, 0.5, event.Probabilities.P0, 1e-9)
	assert.InDelta(t, 1, res.Bloch[0].Z, 1e-9, "the partner collapses with it")
	assert.Equal(t, 1, m.sampled["adhoc"])

	stored, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Outcomes.Len(), "ad-hoc measurements are not memoised")

	_, _, err = svc.Measure(sess.ID, 5)
	assert.ErrorIs(t, err, replay.ErrQubitOutOfRange)
}

func TestService_Resample(t *testing.T) {
	svc, _ := newTestService(t)
	sess := createBell(t, svc)
	_, _, err := svc.Replay(sess.ID, intPtr(5))
	require.NoError(t, err)

	removed, err := svc.Resample(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stored, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Outcomes.Len())
}

func TestService_Delete(t *testing.T) {
	svc, m := newTestService(t)
	sess := createBell(t, svc)

	require.NoError(t, svc.Delete(sess.ID))
	assert.Equal(t, int64(1), m.deleted["user"])
	assert.ErrorIs(t, svc.Delete(sess.ID), ErrNotFound)
	assert.Equal(t, int64(1), m.deleted["user"])
}

func TestService_CleanupStale(t *testing.T) {
	svc, m := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	old := createBell(t, svc)

	svc.now = func() time.Time { return base.Add(10 * 24 * time.Hour) }
	recent := createBell(t, svc)

	removed, err := svc.CleanupStale(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, int64(1), m.deleted["stale"])

	_, err = svc.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(recent.ID)
	assert.NoError(t, err)
}
