package quantum

import (
	"errors"
	"fmt"
	"math"
)

// ErrImpossibleOutcome is returned when collapsing onto an outcome whose probability
// is effectively zero. The accompanying matrix is the unnormalised projection.
var ErrImpossibleOutcome = errors.New("measurement outcome has zero probability")

// Computational-basis projectors |0⟩⟨0| and |1⟩⟨1|.
var (
	Proj0 = FromRows([][]complex128{{1, 0}, {0, 0}})
	Proj1 = FromRows([][]complex128{{0, 0}, {0, 1}})
)

// Probabilities holds the Born-rule probabilities of a Z-basis measurement.
type Probabilities struct {
	P0 float64 `json:"p0" msgpack:"p0"`
	P1 float64 `json:"p1" msgpack:"p1"`
}

// Of returns the probability of outcome.
func (p Probabilities) Of(outcome int) float64 {
	if outcome == 0 {
		return p.P0
	}
	return p.P1
}

// Sampler supplies uniform draws in [0, 1). *rand.Rand satisfies it.
type Sampler interface {
	Float64() float64
}

func projector(outcome int) Matrix {
	if outcome == 0 {
		return Proj0
	}
	return Proj1
}

// MeasureProbabilities returns Pr(0) and Pr(1) for the qubit on slot of the joint
// matrix, each clamped to be non-negative.
func MeasureProbabilities(rho4 Matrix, slot int) Probabilities {
	p0 := real(Embed(Proj0, slot).TraceProduct(rho4))
	p1 := real(Embed(Proj1, slot).TraceProduct(rho4))
	return Probabilities{P0: math.Max(0, p0), P1: math.Max(0, p1)}
}

// Collapse projects the qubit on slot onto outcome and renormalises by 1/Pr(outcome).
// When Pr(outcome) is zero the unnormalised projection is returned with
// ErrImpossibleOutcome, and a replay that reaches it fails instead of yielding
// a degenerate state.
func Collapse(rho4 Matrix, slot, outcome int) (Matrix, error) {
	prob := MeasureProbabilities(rho4, slot).Of(outcome)
	projected := rho4.Conjugate(Embed(projector(outcome), slot))
	if prob < Epsilon*Epsilon {
		return projected, fmt.Errorf("%w: slot %d outcome %d", ErrImpossibleOutcome, slot, outcome)
	}
	return projected.Scale(complex(1/prob, 0)), nil
}

// SingleProbabilities returns the Z-basis probabilities of an independent qubit,
// normalised by their sum.
func SingleProbabilities(s State) Probabilities {
	rho := s.Density()
	p0 := math.Max(0, real(rho.At(0, 0)))
	p1 := math.Max(0, real(rho.At(1, 1)))
	total := p0 + p1
	if total <= 0 {
		return Probabilities{}
	}
	return Probabilities{P0: p0 / total, P1: p1 / total}
}

// CollapseSingle returns the basis ket for outcome.
func CollapseSingle(outcome int) Pure {
	if outcome == 0 {
		return Pure{Alpha: 1}
	}
	return Pure{Beta: 1}
}

// ChooseOutcome maps a uniform draw r onto {[0,Pr0), [Pr0,1)}.
func ChooseOutcome(p Probabilities, r float64) int {
	total := math.Max(0, p.P0+p.P1)
	if total == 0 {
		total = 1
	}
	if r < p.P0/total {
		return 0
	}
	return 1
}

// BasisProbabilities returns the probabilities of |00⟩, |01⟩, |10⟩ and |11⟩.
func BasisProbabilities(rho4 Matrix) [4]float64 {
	var out [4]float64
	for i := range out {
		out[i] = math.Max(0, real(rho4.At(i, i)))
	}
	return out
}

// Measurement is the result of an ad-hoc measurement on the joint matrix.
type Measurement struct {
	Slot          int           `json:"slot"`
	Outcome       int           `json:"outcome"`
	Probabilities Probabilities `json:"probabilities"`
	Joint         Matrix        `json:"joint"`
}

// MeasureJoint samples and collapses the qubit on slot. Nothing is memoised.
func MeasureJoint(rho4 Matrix, slot int, sampler Sampler) (Measurement, error) {
	probs := MeasureProbabilities(rho4, slot)
	outcome := ChooseOutcome(probs, sampler.Float64())
	collapsed, err := Collapse(rho4, slot, outcome)
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{Slot: slot, Outcome: outcome, Probabilities: probs, Joint: collapsed}, nil
}
