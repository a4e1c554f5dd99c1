package replay

import (
	"testing"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/rs/zerolog"
)

type fixedSampler float64

func (f fixedSampler) Float64() float64 { return float64(f) }

type countingSampler struct {
	value float64
	calls int
}

func (c *countingSampler) Float64() float64 {
	c.calls++
	return c.value
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(quantum.NewCatalog(), zerolog.Nop(), opts...)
}

// bellCircuit is H on q0 at step 1, CX(0,1) at step 3 and M on q0 at step 5.
func bellCircuit() *Circuit {
	c := NewCircuit(2, 12)
	c.Gates[0][1] = quantum.GateH
	c.CX[3] = []CXOp{{Control: 0, Target: 1}}
	c.Gates[0][5] = quantum.GateMeasure
	return c
}
