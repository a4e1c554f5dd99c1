package replay

import "github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"

// Pair is the tracked pair: A occupies slot 0 of the joint matrix, B slot 1.
// When A == B the circuit has a single qubit and slot 1 holds a phantom |0⟩.
type Pair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Phantom reports whether slot 1 is a placeholder.
func (p Pair) Phantom() bool { return p.A == p.B }

// Slot returns the joint-matrix slot of qubit q if it belongs to the pair.
func (p Pair) Slot(q int) (int, bool) {
	switch {
	case q == p.A:
		return quantum.Slot0, true
	case q == p.B:
		return quantum.Slot1, true
	default:
		return 0, false
	}
}

// Contains reports whether q belongs to the pair.
func (p Pair) Contains(q int) bool {
	_, ok := p.Slot(q)
	return ok
}

// DefaultPair is (0, 1), or (0, 0) for a single-qubit circuit.
func DefaultPair(qubits int) Pair {
	return Pair{A: 0, B: min(1, qubits-1)}
}

// PairSelector chooses the tracked pair for a replay up to target.
type PairSelector interface {
	SelectPair(c *Circuit, target int) Pair
}

// PairSelectorFunc adapts a function to PairSelector.
type PairSelectorFunc func(c *Circuit, target int) Pair

// SelectPair implements PairSelector.
func (f PairSelectorFunc) SelectPair(c *Circuit, target int) Pair { return f(c, target) }

// FirstCXSelector adopts the operands of the first CX placed at or before target,
// falling back to DefaultPair.
type FirstCXSelector struct{}

// SelectPair implements PairSelector.
func (FirstCXSelector) SelectPair(c *Circuit, target int) Pair {
	for s := 0; s <= target; s++ {
		if ops := c.CXAt(s); len(ops) > 0 {
			return Pair{A: ops[0].Control, B: ops[0].Target}
		}
	}
	return DefaultPair(c.Qubits)
}

// FixedSelector always tracks the same pair.
type FixedSelector struct {
	Pair Pair
}

// SelectPair implements PairSelector.
func (f FixedSelector) SelectPair(*Circuit, int) Pair { return f.Pair }
