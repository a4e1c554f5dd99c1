// Package replay walks a gate-placement grid up to a target step and derives the
// per-qubit states, Bloch trails, measurement events and tracked-pair joint state.
package replay

import (
	"errors"
	"fmt"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
)

// MaxQubits is the widest circuit the driver accepts.
const MaxQubits = 10

var (
	// ErrInvalidCircuit is returned when a circuit definition is malformed.
	ErrInvalidCircuit = errors.New("invalid circuit")
	// ErrStepOutOfRange is returned when the target step lies outside [-1, steps-1].
	ErrStepOutOfRange = errors.New("step out of range")
	// ErrQubitOutOfRange is returned when a qubit index lies outside the circuit.
	ErrQubitOutOfRange = errors.New("qubit out of range")
)

// CXOp is a controlled-NOT placed at a step.
type CXOp struct {
	Control int `json:"control" yaml:"control"`
	Target  int `json:"target" yaml:"target"`
}

// Touches reports whether q is either operand.
func (op CXOp) Touches(q int) bool {
	return op.Control == q || op.Target == q
}

// Circuit is a per-qubit, per-step grid of optional single-qubit gate identifiers
// plus the CX operations placed at each step. Gates is indexed [qubit][step]; an
// empty string is an empty cell. CX is indexed [step]. Rows may be shorter than
// Steps; missing cells are empty.
type Circuit struct {
	Qubits  int             `json:"qubits" yaml:"qubits"`
	Steps   int             `json:"steps" yaml:"steps"`
	Gates   [][]string      `json:"gates" yaml:"gates"`
	CX      [][]CXOp        `json:"cx" yaml:"cx"`
	Initial []quantum.Basis `json:"initial" yaml:"initial"`
}

// NewCircuit returns an empty circuit with every qubit starting in |0⟩.
func NewCircuit(qubits, steps int) *Circuit {
	c := &Circuit{Qubits: qubits, Steps: steps}
	c.Normalize()
	return c
}

// Validate checks dimensions, CX operands and initial selectors.
func (c *Circuit) Validate() error {
	if c.Qubits < 1 || c.Qubits > MaxQubits {
		return fmt.Errorf("%w: qubit count %d outside [1, %d]", ErrInvalidCircuit, c.Qubits, MaxQubits)
	}
	if c.Steps < 1 {
		return fmt.Errorf("%w: step count %d must be positive", ErrInvalidCircuit, c.Steps)
	}
	if len(c.Gates) > c.Qubits {
		return fmt.Errorf("%w: %d gate rows for %d qubits", ErrInvalidCircuit, len(c.Gates), c.Qubits)
	}
	for q, row := range c.Gates {
		if len(row) > c.Steps {
			return fmt.Errorf("%w: qubit %d has %d cells for %d steps", ErrInvalidCircuit, q, len(row), c.Steps)
		}
	}
	if len(c.CX) > c.Steps {
		return fmt.Errorf("%w: %d CX columns for %d steps", ErrInvalidCircuit, len(c.CX), c.Steps)
	}
	for s, ops := range c.CX {
		for _, op := range ops {
			if op.Control < 0 || op.Control >= c.Qubits || op.Target < 0 || op.Target >= c.Qubits {
				return fmt.Errorf("%w: CX(%d,%d) at step %d references a missing qubit", ErrInvalidCircuit, op.Control, op.Target, s)
			}
			if op.Control == op.Target {
				return fmt.Errorf("%w: CX at step %d uses qubit %d as both control and target", ErrInvalidCircuit, s, op.Control)
			}
		}
	}
	if len(c.Initial) > c.Qubits {
		return fmt.Errorf("%w: %d initial selectors for %d qubits", ErrInvalidCircuit, len(c.Initial), c.Qubits)
	}
	for q, b := range c.Initial {
		if b == "" {
			continue
		}
		if _, err := quantum.ParseBasis(string(b)); err != nil {
			return fmt.Errorf("%w: qubit %d: %v", ErrInvalidCircuit, q, err)
		}
	}
	return nil
}

// Gate returns the identifier placed at (q, s), or "".
func (c *Circuit) Gate(q, s int) string {
	if q < 0 || q >= len(c.Gates) || s < 0 || s >= len(c.Gates[q]) {
		return ""
	}
	return c.Gates[q][s]
}

// CXAt returns the CX operations placed at step s.
func (c *Circuit) CXAt(s int) []CXOp {
	if s < 0 || s >= len(c.CX) {
		return nil
	}
	return c.CX[s]
}

// InitialBasis returns the initial selector for q, defaulting to |0⟩.
func (c *Circuit) InitialBasis(q int) quantum.Basis {
	if q < 0 || q >= len(c.Initial) || c.Initial[q] == "" {
		return quantum.DefaultBasis
	}
	return c.Initial[q]
}

// Normalize pads or truncates the grid, CX columns and initial selectors to the
// declared dimensions, dropping CX operations that reference removed qubits.
func (c *Circuit) Normalize() {
	gates := make([][]string, c.Qubits)
	for q := range gates {
		gates[q] = make([]string, c.Steps)
		for s := range gates[q] {
			gates[q][s] = c.Gate(q, s)
		}
	}
	c.Gates = gates

	cx := make([][]CXOp, c.Steps)
	for s := range cx {
		for _, op := range c.CXAt(s) {
			if op.Control < c.Qubits && op.Target < c.Qubits {
				cx[s] = append(cx[s], op)
			}
		}
	}
	c.CX = cx

	initial := make([]quantum.Basis, c.Qubits)
	for q := range initial {
		initial[q] = c.InitialBasis(q)
	}
	c.Initial = initial
}

// Clone returns a deep copy.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{Qubits: c.Qubits, Steps: c.Steps}
	out.Gates = make([][]string, len(c.Gates))
	for q, row := range c.Gates {
		out.Gates[q] = append([]string(nil), row...)
	}
	out.CX = make([][]CXOp, len(c.CX))
	for s, ops := range c.CX {
		out.CX[s] = append([]CXOp(nil), ops...)
	}
	out.Initial = append([]quantum.Basis(nil), c.Initial...)
	return out
}
