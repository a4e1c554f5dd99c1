package quantum

import "math"

// Bell-state labels returned by DescribeBellState.
const (
	BellPhiPlus      = "Φ+"
	BellPhiMinus     = "Φ−"
	BellPsiPlus      = "Ψ+"
	BellPsiMinus     = "Ψ−"
	GenericEntangled = "generic entangled state"
)

type bellProjector struct {
	label string
	proj  Matrix
}

// bellProjectors are the canonical |B⟩⟨B| projectors in classification order.
var bellProjectors = []bellProjector{
	{BellPhiPlus, FromRows([][]complex128{
		{0.5, 0, 0, 0.5},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0.5, 0, 0, 0.5},
	})},
	{BellPhiMinus, FromRows([][]complex128{
		{0.5, 0, 0, -0.5},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{-0.5, 0, 0, 0.5},
	})},
	{BellPsiPlus, FromRows([][]complex128{
		{0, 0, 0, 0},
		{0, 0.5, 0.5, 0},
		{0, 0.5, 0.5, 0},
		{0, 0, 0, 0},
	})},
	{BellPsiMinus, FromRows([][]complex128{
		{0, 0, 0, 0},
		{0, 0.5, -0.5, 0},
		{0, -0.5, 0.5, 0},
		{0, 0, 0, 0},
	})},
}

// BellProjector returns the projector for a Bell label.
func BellProjector(label string) (Matrix, bool) {
	for _, b := range bellProjectors {
		if b.label == label {
			return b.proj, true
		}
	}
	return Matrix{}, false
}

// EntanglementTest decides whether a joint matrix is entangled.
type EntanglementTest func(rho4 Matrix) bool

// IsEntangled reports whether either reduced state of the pair is mixed.
//
// This is a heuristic: a classically correlated mixed product state is reported as
// entangled too.
func IsEntangled(rho4 Matrix) bool {
	return !IsPure(PartialTrace(rho4, Slot1)) || !IsPure(PartialTrace(rho4, Slot0))
}

// DescribeBellState returns the label of the Bell state whose projector overlaps rho4
// by more than 1−Epsilon, or GenericEntangled.
func DescribeBellState(rho4 Matrix) string {
	best, bestScore := "", 0.0
	for _, b := range bellProjectors {
		if score := real(b.proj.TraceProduct(rho4)); score > bestScore {
			best, bestScore = b.label, score
		}
	}
	if bestScore > 1-Epsilon {
		return best
	}
	return GenericEntangled
}

// Correlations holds two-qubit Pauli correlators of the tracked pair.
type Correlations struct {
	XX float64 `json:"xx"`
	YY float64 `json:"yy"`
	ZZ float64 `json:"zz"`
}

func expectationPair(rho4, a, b Matrix) float64 {
	v := real(Tensor(a, b).TraceProduct(rho4))
	return math.Max(-1, math.Min(1, v))
}

// PairCorrelations returns ⟨X⊗X⟩, ⟨Y⊗Y⟩ and ⟨Z⊗Z⟩, clamped to [−1, 1].
func PairCorrelations(rho4 Matrix) Correlations {
	return Correlations{
		XX: expectationPair(rho4, PauliX, PauliX),
		YY: expectationPair(rho4, PauliY, PauliY),
		ZZ: expectationPair(rho4, PauliZ, PauliZ),
	}
}
