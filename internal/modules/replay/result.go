package replay

import "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"

// MeasurementEvent is a measurement encountered during a replay. Fresh is true
// when the outcome was sampled by this replay rather than read from the memo.
type MeasurementEvent struct {
	Qubit         int                   `json:"qubit"`
	Outcome       int                   `json:"outcome"`
	Step          int                   `json:"step"`
	Probabilities quantum.Probabilities `json:"probabilities"`
	Fresh         bool                  `json:"fresh"`
}

// Result is the derived state of a circuit at a step. Measured holds the latest
// outcome per qubit, nil when unmeasured. Approximated counts the CX operations
// that went through the coupling approximation.
type Result struct {
	Step               int                  `json:"step"`
	Pair               Pair                 `json:"pair"`
	States             []quantum.State      `json:"states"`
	Bloch              []quantum.Vector     `json:"bloch"`
	Trails             [][]quantum.Vector   `json:"trails"`
	Purities           []float64            `json:"purities"`
	Measured           []*int               `json:"measured"`
	Joint              quantum.Matrix       `json:"joint"`
	Entangled          bool                 `json:"entangled"`
	BellLabel          string               `json:"bell_label,omitempty"`
	Correlations       quantum.Correlations `json:"correlations"`
	BasisProbabilities [4]float64           `json:"basis_probabilities"`
	Events             []MeasurementEvent   `json:"events"`
	Approximated       int                  `json:"approximated_cx"`
}

// Clone returns a copy that can be mutated without touching r. States and
// matrices are immutable values and are shared.
func (r *Result) Clone() *Result {
	out := *r
	out.States = append([]quantum.State(nil), r.States...)
	out.Bloch = append([]quantum.Vector(nil), r.Bloch...)
	out.Trails = make([][]quantum.Vector, len(r.Trails))
	for q, trail := range r.Trails {
		out.Trails[q] = append([]quantum.Vector(nil), trail...)
	}
	out.Purities = append([]float64(nil), r.Purities...)
	out.Measured = append([]*int(nil), r.Measured...)
	out.Events = append([]MeasurementEvent(nil), r.Events...)
	return &out
}

// FreshDraws returns how many events were sampled by the replay that produced r.
func (r *Result) FreshDraws() int {
	n := 0
	for _, e := range r.Events {
		if e.Fresh {
			n++
		}
	}
	return n
}
