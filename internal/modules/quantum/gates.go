package quantum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// ErrUnknownGate is returned by strict lookups of an unregistered gate identifier.
var ErrUnknownGate = errors.New("unknown gate")

// Gate identifiers understood by the catalog.
const (
	GateX       = "X"
	GateY       = "Y"
	GateZ       = "Z"
	GateH       = "H"
	GateS       = "S"
	GateSdg     = "Sdg"
	GateT       = "T"
	GateTdg     = "Tdg"
	GateMeasure = "M"
)

// Gate is an immutable named single-qubit unitary. Axis and Angle describe the
// equivalent Bloch-sphere rotation for renderers; the simulation only uses Matrix.
type Gate struct {
	Name   string  `json:"name"`
	Matrix Matrix  `json:"matrix"`
	Axis   Vector  `json:"axis"`
	Angle  float64 `json:"angle"`
}

// IsMeasurement reports whether g is the measurement marker.
func (g Gate) IsMeasurement() bool { return g.Name == GateMeasure }

// Catalog is a lookup table of gates and their registered inverses.
type Catalog struct {
	gates    map[string]Gate
	inverses map[string]string
}

func phase(theta float64) complex128 { return cmplx.Rect(1, theta) }

// Pauli and identity matrices shared by the engine.
var (
	ID2    = Identity(2)
	PauliX = FromRows([][]complex128{{0, 1}, {1, 0}})
	PauliY = FromRows([][]complex128{{0, -1i}, {1i, 0}})
	PauliZ = FromRows([][]complex128{{1, 0}, {0, -1}})
)

// NewCatalog returns the standard catalog: X, Y, Z, H, S, S†, T, T† and the
// identity-acting measurement marker M.
func NewCatalog() *Catalog {
	h := complex(invSqrt2, 0)
	zAxis := Vector{Z: 1}
	c := &Catalog{
		gates: map[string]Gate{
			GateX:   {Name: GateX, Matrix: PauliX, Axis: Vector{X: 1}, Angle: math.Pi},
			GateY:   {Name: GateY, Matrix: PauliY, Axis: Vector{Y: 1}, Angle: math.Pi},
			GateZ:   {Name: GateZ, Matrix: PauliZ, Axis: zAxis, Angle: math.Pi},
			GateH:   {Name: GateH, Matrix: FromRows([][]complex128{{h, h}, {h, -h}}), Axis: Vector{X: invSqrt2, Z: invSqrt2}, Angle: math.Pi},
			GateS:   {Name: GateS, Matrix: FromRows([][]complex128{{1, 0}, {0, 1i}}), Axis: zAxis, Angle: math.Pi / 2},
			GateSdg: {Name: GateSdg, Matrix: FromRows([][]complex128{{1, 0}, {0, -1i}}), Axis: zAxis, Angle: -math.Pi / 2},
			GateT:   {Name: GateT, Matrix: FromRows([][]complex128{{1, 0}, {0, phase(math.Pi / 4)}}), Axis: zAxis, Angle: math.Pi / 4},
			GateTdg: {Name: GateTdg, Matrix: FromRows([][]complex128{{1, 0}, {0, phase(-math.Pi / 4)}}), Axis: zAxis, Angle: -math.Pi / 4},
			// M has no unitary effect; collapse is handled by the measurement engine.
			GateMeasure: {Name: GateMeasure, Matrix: ID2, Axis: zAxis, Angle: 0},
		},
		inverses: map[string]string{
			GateX:   GateX,
			GateY:   GateY,
			GateZ:   GateZ,
			GateH:   GateH,
			GateS:   GateSdg,
			GateSdg: GateS,
			GateT:   GateTdg,
			GateTdg: GateT,
			// Collapse is irreversible; M is registered as its own inverse so that
			// backward animation treats it as identity.
			GateMeasure: GateMeasure,
		},
	}
	return c
}

// Lookup returns the gate registered under name.
func (c *Catalog) Lookup(name string) (Gate, bool) {
	g, ok := c.gates[name]
	return g, ok
}

// Resolve is the strict form of Lookup.
func (c *Catalog) Resolve(name string) (Gate, error) {
	g, ok := c.gates[name]
	if !ok {
		return Gate{}, fmt.Errorf("%w: %q", ErrUnknownGate, name)
	}
	return g, nil
}

// Inverse returns the identifier of the registered inverse of name.
func (c *Catalog) Inverse(name string) (string, bool) {
	inv, ok := c.inverses[name]
	return inv, ok
}

// Names returns the registered identifiers in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.gates))
	for name := range c.gates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
