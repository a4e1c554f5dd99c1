package replay

import (
	"math"
	"testing"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayInitialStates(t *testing.T) {
	c := NewCircuit(3, 4)
	c.Initial = []quantum.Basis{quantum.BasisPlus, quantum.BasisOne, quantum.BasisPlusI}

	res, err := newTestEngine(t).Replay(nil, c, -1)
	require.NoError(t, err)

	assert.Equal(t, -1, res.Step)
	assert.Equal(t, Pair{A: 0, B: 1}, res.Pair)
	assert.InDelta(t, 1.0, res.Bloch[0].X, 1e-9)
	assert.InDelta(t, -1.0, res.Bloch[1].Z, 1e-9)
	assert.InDelta(t, 1.0, res.Bloch[2].Y, 1e-9)
	for q := range res.Trails {
		assert.Len(t, res.Trails[q], 1)
		assert.Nil(t, res.Measured[q])
		assert.InDelta(t, 1.0, res.Purities[q], 1e-9)
	}
	assert.False(t, res.Entangled)
	assert.Empty(t, res.BellLabel)
}

func TestReplayBellPreparation(t *testing.T) {
	res, err := newTestEngine(t).Replay(nil, bellCircuit(), 3)
	require.NoError(t, err)

	phiPlus, _ := quantum.BellProjector(quantum.BellPhiPlus)
	assert.True(t, res.Joint.EqualApprox(phiPlus, 1e-9))
	assert.True(t, res.Entangled)
	assert.Equal(t, quantum.BellPhiPlus, res.BellLabel)

	for q := 0; q < 2; q++ {
		_, mixed := res.States[q].(quantum.Mixed)
		assert.True(t, mixed, "qubit %d", q)
		assert.InDelta(t, 0.5, res.Purities[q], 1e-9)
		assert.InDelta(t, 0.0, res.Bloch[q].Length(), 1e-9)
	}
	assert.InDelta(t, 1.0, res.Correlations.XX, 1e-9)
	assert.InDelta(t, -1.0, res.Correlations.YY, 1e-9)
	assert.InDelta(t, 1.0, res.Correlations.ZZ, 1e-9)
	assert.InDelta(t, 0.5, res.BasisProbabilities[0], 1e-9)
	assert.InDelta(t, 0.5, res.BasisProbabilities[3], 1e-9)

	// q0: initial, H, CX. q1: initial, CX.
	assert.Len(t, res.Trails[0], 3)
	assert.Len(t, res.Trails[1], 2)
	assert.InDelta(t, 1.0, res.Trails[0][1].X, 1e-9)
	assert.Zero(t, res.Approximated)
}

func TestReplayMeasurementIsStable(t *testing.T) {
	sampler := &countingSampler{value: 0.9}
	engine := newTestEngine(t, WithSampler(sampler))
	rc := NewContext()
	c := bellCircuit()

	forward, err := engine.Replay(rc, c, 5)
	require.NoError(t, err)
	require.Len(t, forward.Events, 1)
	assert.True(t, forward.Events[0].Fresh)
	assert.Equal(t, 1, forward.Events[0].Outcome)
	assert.InDelta(t, 0.5, forward.Events[0].Probabilities.P0, 1e-9)

	back, err := engine.Replay(rc, c, 4)
	require.NoError(t, err)
	assert.Empty(t, back.Events)
	assert.True(t, back.Entangled)

	sampler.value = 0.0
	again, err := engine.Replay(rc, c, 5)
	require.NoError(t, err)
	require.Len(t, again.Events, 1)
	assert.False(t, again.Events[0].Fresh)
	assert.Equal(t, 1, again.Events[0].Outcome)
	assert.Equal(t, 1, sampler.calls)
	assert.Equal(t, 1, forward.FreshDraws())
	assert.Zero(t, again.FreshDraws())

	require.NotNil(t, again.Measured[0])
	assert.Equal(t, 1, *again.Measured[0])
	assert.Nil(t, again.Measured[1])
}

func TestReplayCollapseCorrelatesPartner(t *testing.T) {
	res, err := newTestEngine(t, WithSampler(fixedSampler(0.9))).Replay(nil, bellCircuit(), 5)
	require.NoError(t, err)

	assert.False(t, res.Entangled)
	for q := 0; q < 2; q++ {
		pure, ok := res.States[q].(quantum.Pure)
		require.True(t, ok, "qubit %d", q)
		assert.InDelta(t, 1.0, quantum.Abs2(pure.Beta), 1e-9)
		assert.InDelta(t, -1.0, res.Bloch[q].Z, 1e-9)
	}
	// The collapse adds a sample to both members.
	assert.Len(t, res.Trails[0], 4)
	assert.Len(t, res.Trails[1], 3)
}

func TestReplayIsIdempotent(t *testing.T) {
	engine := newTestEngine(t)
	rc := NewContext()
	c := bellCircuit()
	c.Gates[1][7] = quantum.GateT
	c.Gates[1][8] = quantum.GateMeasure

	_, err := engine.Replay(rc, c, 11)
	require.NoError(t, err)

	first, err := engine.Replay(rc, c, 11)
	require.NoError(t, err)
	second, err := engine.Replay(rc, c, 11)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReplayCouplingOutsidePair(t *testing.T) {
	c := NewCircuit(3, 2)
	c.Initial[0] = quantum.BasisOne
	c.CX[0] = []CXOp{{Control: 0, Target: 1}}

	engine := newTestEngine(t, WithSelector(FixedSelector{Pair: Pair{A: 0, B: 2}}))
	res, err := engine.Replay(nil, c, 0)
	require.NoError(t, err)

	_, mixed := res.States[1].(quantum.Mixed)
	assert.True(t, mixed, "coupled target is held as a density matrix")
	assert.InDelta(t, 1.0, quantum.SingleProbabilities(res.States[1]).P1, 1e-12)
	assert.InDelta(t, -1.0, res.Bloch[1].Z, 1e-12)
	assert.Len(t, res.Trails[1], 2)
	assert.InDelta(t, -1.0, res.Bloch[0].Z, 1e-12)
	assert.Equal(t, 1, res.Approximated)
}

func TestReplayCouplingIntoPair(t *testing.T) {
	c := NewCircuit(3, 1)
	c.Initial[2] = quantum.BasisOne
	c.CX[0] = []CXOp{{Control: 2, Target: 1}}

	engine := newTestEngine(t, WithSelector(FixedSelector{Pair: Pair{A: 0, B: 1}}))
	res, err := engine.Replay(nil, c, 0)
	require.NoError(t, err)

	assert.InDelta(t, -1.0, res.Bloch[1].Z, 1e-12)
	assert.InDelta(t, 1.0, res.Bloch[0].Z, 1e-12)
	assert.InDelta(t, 1.0, res.BasisProbabilities[1], 1e-12)
}

func TestReplayCouplingDestroysCoherence(t *testing.T) {
	c := NewCircuit(3, 2)
	c.Gates[0][0] = quantum.GateH
	c.CX[1] = []CXOp{{Control: 0, Target: 2}}

	engine := newTestEngine(t, WithSelector(FixedSelector{Pair: Pair{A: 0, B: 1}}))
	res, err := engine.Replay(nil, c, 1)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, res.Purities[2], 1e-9)
	assert.InDelta(t, 1.0, res.Purities[0], 1e-9, "control keeps its coherence")
	assert.False(t, res.Entangled)
}

func TestReplayHonorsCXOrientation(t *testing.T) {
	c := NewCircuit(2, 1)
	c.Initial[1] = quantum.BasisOne
	c.CX[0] = []CXOp{{Control: 1, Target: 0}}

	for _, pair := range []Pair{{A: 0, B: 1}, {A: 1, B: 0}} {
		engine := newTestEngine(t, WithSelector(FixedSelector{Pair: pair}))
		res, err := engine.Replay(nil, c, 0)
		require.NoError(t, err)
		assert.InDelta(t, -1.0, res.Bloch[0].Z, 1e-12, "pair %+v", pair)
		assert.InDelta(t, -1.0, res.Bloch[1].Z, 1e-12, "pair %+v", pair)
	}
}

func TestReplayPinnedPairOverridesSelector(t *testing.T) {
	c := bellCircuit()
	rc := NewContext().WithPair(Pair{A: 1, B: 0})

	res, err := newTestEngine(t).Replay(rc, c, 3)
	require.NoError(t, err)

	assert.Equal(t, Pair{A: 1, B: 0}, res.Pair)
	assert.True(t, res.Entangled)
	assert.Equal(t, quantum.BellPhiPlus, res.BellLabel)
}

func TestReplayIndependentMeasurement(t *testing.T) {
	c := NewCircuit(3, 1)
	c.Initial[2] = quantum.BasisPlus
	c.Gates[2][0] = quantum.GateMeasure

	res, err := newTestEngine(t, WithSampler(fixedSampler(0.2))).Replay(nil, c, 0)
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	assert.Equal(t, MeasurementEvent{
		Qubit:         2,
		Outcome:       0,
		Step:          0,
		Probabilities: quantum.Probabilities{P0: 0.5, P1: 0.5},
		Fresh:         true,
	}, roundEvent(res.Events[0]))
	assert.Equal(t, quantum.Pure{Alpha: 1}, res.States[2])
}

func roundEvent(e MeasurementEvent) MeasurementEvent {
	round := func(v float64) float64 { return math.Round(v*1e9) / 1e9 }
	e.Probabilities.P0 = round(e.Probabilities.P0)
	e.Probabilities.P1 = round(e.Probabilities.P1)
	return e
}

func TestReplayImpossibleMemoizedOutcome(t *testing.T) {
	c := NewCircuit(2, 1)
	c.Gates[0][0] = quantum.GateMeasure
	rc := NewContext()
	rc.Outcomes.Record(quantum.OutcomeKey{Step: 0, Qubit: 0}, quantum.OutcomeRecord{Outcome: 1})

	_, err := newTestEngine(t).Replay(rc, c, 0)
	assert.ErrorIs(t, err, quantum.ErrImpossibleOutcome)
}

func TestReplayUnknownGates(t *testing.T) {
	c := NewCircuit(2, 1)
	c.Gates[0][0] = "Q"

	res, err := newTestEngine(t).Replay(nil, c, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Bloch[0].Z, 1e-12)
	assert.Len(t, res.Trails[0], 1)

	_, err = newTestEngine(t, WithStrictGates(true)).Replay(nil, c, 0)
	assert.ErrorIs(t, err, quantum.ErrUnknownGate)
}

func TestReplayRejectsBadInput(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Replay(nil, bellCircuit(), 12)
	assert.ErrorIs(t, err, ErrStepOutOfRange)
	_, err = engine.Replay(nil, bellCircuit(), -2)
	assert.ErrorIs(t, err, ErrStepOutOfRange)
	_, err = engine.Replay(nil, &Circuit{Qubits: 0, Steps: 1}, 0)
	assert.ErrorIs(t, err, ErrInvalidCircuit)

	pinned := NewContext().WithPair(Pair{A: 0, B: 5})
	_, err = engine.Replay(pinned, bellCircuit(), 0)
	assert.ErrorIs(t, err, ErrInvalidCircuit)
}

func TestReplaySingleQubitUsesPhantomPartner(t *testing.T) {
	c := NewCircuit(1, 2)
	c.Gates[0][0] = quantum.GateH
	c.Gates[0][1] = quantum.GateS

	res, err := newTestEngine(t).Replay(nil, c, 1)
	require.NoError(t, err)

	assert.True(t, res.Pair.Phantom())
	assert.False(t, res.Entangled)
	require.Len(t, res.States, 1)
	assert.InDelta(t, 1.0, res.Bloch[0].Y, 1e-9)
	assert.Len(t, res.Trails[0], 3)
}

func TestCustomEntanglementTest(t *testing.T) {
	always := func(quantum.Matrix) bool { return true }
	res, err := newTestEngine(t, WithEntanglementTest(always)).Replay(nil, NewCircuit(2, 1), 0)
	require.NoError(t, err)

	assert.True(t, res.Entangled)
	assert.Equal(t, quantum.GenericEntangled, res.BellLabel)
}
