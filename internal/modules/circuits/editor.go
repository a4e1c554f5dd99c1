package circuits

import (
	"fmt"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
)

// Editor applies placement rules to a session. Every edit at step s drops the
// memoised outcomes at steps >= s, since they were sampled against the old circuit.
type Editor struct {
	catalog   *quantum.Catalog
	maxQubits int
}

// NewEditor creates an editor that accepts gates from catalog and circuits of up
// to maxQubits wires.
func NewEditor(catalog *quantum.Catalog, maxQubits int) *Editor {
	if maxQubits < 1 || maxQubits > replay.MaxQubits {
		maxQubits = replay.MaxQubits
	}
	return &Editor{catalog: catalog, maxQubits: maxQubits}
}

// MaxQubits returns the widest circuit the editor allows.
func (e *Editor) MaxQubits() int { return e.maxQubits }

func (e *Editor) checkCell(c *replay.Circuit, q, s int) error {
	if q < 0 || q >= c.Qubits {
		return fmt.Errorf("%w: qubit %d outside [0, %d)", ErrInvalidPlacement, q, c.Qubits)
	}
	if s < 0 || s >= c.Steps {
		return fmt.Errorf("%w: step %d outside [0, %d)", ErrInvalidPlacement, s, c.Steps)
	}
	return nil
}

// PlaceGate puts a single-qubit gate at (q, s), replacing whatever was there.
// CX operations at s that touch q are removed.
func (e *Editor) PlaceGate(sess *Session, q, s int, name string) error {
	c := sess.Circuit
	if err := e.checkCell(c, q, s); err != nil {
		return err
	}
	if _, ok := e.catalog.Lookup(name); !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidPlacement, quantum.ErrUnknownGate, name)
	}
	c.Gates[q][s] = name
	c.CX[s] = dropTouching(c.CX[s], q)
	e.invalidateFrom(sess, s)
	return nil
}

// PlaceCX puts CX(control, target) at s. Single gates on either operand at s and
// CX operations at s sharing an operand are removed.
func (e *Editor) PlaceCX(sess *Session, s, control, target int) error {
	c := sess.Circuit
	if control == target {
		return fmt.Errorf("%w: control and target are both qubit %d", ErrInvalidPlacement, control)
	}
	if err := e.checkCell(c, control, s); err != nil {
		return err
	}
	if err := e.checkCell(c, target, s); err != nil {
		return err
	}
	c.Gates[control][s] = ""
	c.Gates[target][s] = ""
	ops := dropTouching(dropTouching(c.CX[s], control), target)
	c.CX[s] = append(ops, replay.CXOp{Control: control, Target: target})
	e.invalidateFrom(sess, s)
	return nil
}

// ClearCell removes the gate at (q, s) and any CX at s touching q.
func (e *Editor) ClearCell(sess *Session, q, s int) error {
	c := sess.Circuit
	if err := e.checkCell(c, q, s); err != nil {
		return err
	}
	c.Gates[q][s] = ""
	c.CX[s] = dropTouching(c.CX[s], q)
	e.invalidateFrom(sess, s)
	return nil
}

// SetInitial changes the initial selector of q. All outcomes are dropped.
func (e *Editor) SetInitial(sess *Session, q int, basis quantum.Basis) error {
	c := sess.Circuit
	if q < 0 || q >= c.Qubits {
		return fmt.Errorf("%w: qubit %d outside [0, %d)", ErrInvalidPlacement, q, c.Qubits)
	}
	if _, err := quantum.ParseBasis(string(basis)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlacement, err)
	}
	c.Initial[q] = basis
	e.invalidateFrom(sess, 0)
	return nil
}

// Resize changes the qubit count. Cells and CX operations on removed wires are
// dropped along with their outcomes; new wires start empty in |0⟩.
func (e *Editor) Resize(sess *Session, qubits int) error {
	if qubits < 1 || qubits > e.maxQubits {
		return fmt.Errorf("%w: qubit count %d outside [1, %d]", ErrInvalidPlacement, qubits, e.maxQubits)
	}
	c := sess.Circuit
	if qubits < c.Qubits {
		memo := outcomes(sess)
		memo.ClearQubitsFrom(qubits)
		if s, ok := firstDroppedStep(c, qubits); ok {
			memo.ClearFrom(s)
		}
	}
	c.Qubits = qubits
	c.Normalize()
	return nil
}

// Replace swaps in a whole circuit. The memo is dropped and the cursor clamped.
func (e *Editor) Replace(sess *Session, c *replay.Circuit) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Qubits > e.maxQubits {
		return fmt.Errorf("%w: qubit count %d exceeds %d", replay.ErrInvalidCircuit, c.Qubits, e.maxQubits)
	}
	if c.Steps > MaxSteps {
		return fmt.Errorf("%w: step count %d exceeds %d", replay.ErrInvalidCircuit, c.Steps, MaxSteps)
	}
	for q := 0; q < c.Qubits; q++ {
		for s := 0; s < c.Steps; s++ {
			if name := c.Gate(q, s); name != "" {
				if _, ok := e.catalog.Lookup(name); !ok {
					return fmt.Errorf("%w: %w: %q at qubit %d step %d", replay.ErrInvalidCircuit, quantum.ErrUnknownGate, name, q, s)
				}
			}
		}
	}
	next := c.Clone()
	next.Normalize()
	sess.Circuit = next
	sess.Outcomes = quantum.NewOutcomeTable()
	sess.Cursor = clampCursor(sess.Cursor, next.Steps)
	return nil
}

// SeedReference places the reference Bell circuit on an empty circuit of two or
// more qubits: H on q0 at step 1, CX(0,1) at step 3 and a measurement of q0 at
// step 5. It reports whether anything was placed.
func (e *Editor) SeedReference(sess *Session) bool {
	c := sess.Circuit
	if c.Qubits < 2 || c.Steps < 6 || !isEmpty(c) {
		return false
	}
	c.Gates[0][1] = quantum.GateH
	c.CX[3] = []replay.CXOp{{Control: 0, Target: 1}}
	c.Gates[0][5] = quantum.GateMeasure
	e.invalidateFrom(sess, 0)
	return true
}

// Move shifts the cursor. Moving back keeps the memo so that stepping forward
// again reproduces the same outcomes.
func (e *Editor) Move(sess *Session, d Direction) {
	switch d {
	case StepForward:
		sess.Cursor = clampCursor(sess.Cursor+1, sess.Circuit.Steps)
	case StepBack:
		sess.Cursor = clampCursor(sess.Cursor-1, sess.Circuit.Steps)
	case StepReset:
		sess.Cursor = -1
	}
}

// Resample drops every memoised outcome so the next replay samples afresh.
func (e *Editor) Resample(sess *Session) int {
	return outcomes(sess).ClearFrom(0)
}

func (e *Editor) invalidateFrom(sess *Session, s int) {
	outcomes(sess).ClearFrom(s)
}

func outcomes(sess *Session) *quantum.OutcomeTable {
	if sess.Outcomes == nil {
		sess.Outcomes = quantum.NewOutcomeTable()
	}
	return sess.Outcomes
}

// firstDroppedStep returns the earliest step holding a gate or CX that a resize to
// qubits wires removes.
func firstDroppedStep(c *replay.Circuit, qubits int) (int, bool) {
	for s := 0; s < c.Steps; s++ {
		for q := qubits; q < c.Qubits; q++ {
			if c.Gate(q, s) != "" {
				return s, true
			}
		}
		for _, op := range c.CXAt(s) {
			if op.Control >= qubits || op.Target >= qubits {
				return s, true
			}
		}
	}
	return 0, false
}

func dropTouching(ops []replay.CXOp, q int) []replay.CXOp {
	out := ops[:0:0]
	for _, op := range ops {
		if !op.Touches(q) {
			out = append(out, op)
		}
	}
	return out
}

func isEmpty(c *replay.Circuit) bool {
	for q := 0; q < c.Qubits; q++ {
		for s := 0; s < c.Steps; s++ {
			if c.Gate(q, s) != "" {
				return false
			}
		}
	}
	for s := 0; s < c.Steps; s++ {
		if len(c.CXAt(s)) > 0 {
			return false
		}
	}
	return true
}

func clampCursor(cursor, steps int) int {
	return max(-1, min(cursor, steps-1))
}
