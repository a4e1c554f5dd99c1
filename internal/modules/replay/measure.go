package replay

import (
	"fmt"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
)

// Measure samples qubit q of a replay result outside the circuit. The draw is not
// memoised and res is left untouched; the returned result reflects the collapse.
func (e *Engine) Measure(res *Result, q int) (*Result, MeasurementEvent, error) {
	if q < 0 || q >= len(res.States) {
		return nil, MeasurementEvent{}, fmt.Errorf("%w: %d", ErrQubitOutOfRange, q)
	}
	out := res.Clone()
	event := MeasurementEvent{Qubit: q, Step: res.Step, Fresh: true}

	if slot, ok := res.Pair.Slot(q); ok {
		m, err := quantum.MeasureJoint(res.Joint, slot, e.sampler)
		if err != nil {
			return nil, MeasurementEvent{}, fmt.Errorf("failed to measure qubit %d: %w", q, err)
		}
		out.Joint = m.Joint
		event.Outcome, event.Probabilities = m.Outcome, m.Probabilities
		for _, member := range []int{res.Pair.A, res.Pair.B} {
			s, _ := res.Pair.Slot(member)
			out.States[member] = quantum.FromDensity(quantum.Reduced(out.Joint, s))
		}
	} else {
		probs := quantum.SingleProbabilities(res.States[q])
		event.Outcome = quantum.ChooseOutcome(probs, e.sampler.Float64())
		event.Probabilities = probs
		out.States[q] = quantum.CollapseSingle(event.Outcome)
	}

	outcome := event.Outcome
	out.Measured[q] = &outcome
	out.Events = append(out.Events, event)
	out.derive(e.entangled)
	for qubit := range out.Trails {
		if out.Bloch[qubit] != res.Bloch[qubit] {
			out.Trails[qubit] = append(out.Trails[qubit], out.Bloch[qubit])
		}
	}

	e.log.Debug().Int("qubit", q).Int("outcome", outcome).Msg("Ad-hoc measurement")
	return out, event, nil
}
