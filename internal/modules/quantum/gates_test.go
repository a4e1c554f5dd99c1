package quantum

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKets() []Pure {
	kets := make([]Pure, 0, len(Bases)+1)
	for _, b := range Bases {
		kets = append(kets, b.State())
	}
	return append(kets, NewPure(complex(0.3, 0.4), complex(-0.5, 0.2)))
}

func TestCatalogRegistersEveryGate(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, []string{"H", "M", "S", "Sdg", "T", "Tdg", "X", "Y", "Z"}, c.Names())
}

func TestGatesAreUnitary(t *testing.T) {
	c := NewCatalog()
	for _, name := range c.Names() {
		g, ok := c.Lookup(name)
		require.True(t, ok)
		assert.True(t, g.Matrix.Mul(g.Matrix.Adjoint()).EqualApprox(ID2, testTol), name)
	}
}

func TestGatesPreserveNorm(t *testing.T) {
	c := NewCatalog()
	for _, name := range c.Names() {
		g, _ := c.Lookup(name)
		for _, ket := range testKets() {
			out := ApplyGate(ket, g).(Pure)
			assert.InDelta(t, ket.Norm2(), out.Norm2(), NormTolerance, name)
		}
	}
}

func TestGateThenInverseRestoresState(t *testing.T) {
	c := NewCatalog()
	for _, name := range c.Names() {
		g, _ := c.Lookup(name)
		invName, ok := c.Inverse(name)
		require.True(t, ok, name)
		inv, ok := c.Lookup(invName)
		require.True(t, ok, invName)

		for _, ket := range testKets() {
			out := ApplyGate(ApplyGate(ket, g), inv).(Pure)
			assert.InDelta(t, real(ket.Alpha), real(out.Alpha), Epsilon, name)
			assert.InDelta(t, imag(ket.Alpha), imag(out.Alpha), Epsilon, name)
			assert.InDelta(t, real(ket.Beta), real(out.Beta), Epsilon, name)
			assert.InDelta(t, imag(ket.Beta), imag(out.Beta), Epsilon, name)
		}

		mixed := Mixed{Rho: sampleMixed()}
		back := ApplyGate(ApplyGate(mixed, g), inv)
		assertMatrixNear(t, mixed.Rho, back.Density(), Epsilon)
	}
}

func TestRegisteredInverses(t *testing.T) {
	c := NewCatalog()
	cases := map[string]string{
		"X": "X", "Y": "Y", "Z": "Z", "H": "H",
		"S": "Sdg", "Sdg": "S", "T": "Tdg", "Tdg": "T", "M": "M",
	}
	for gate, want := range cases {
		got, ok := c.Inverse(gate)
		assert.True(t, ok)
		assert.Equal(t, want, got, gate)
	}
}

func TestMeasurementMarkerIsIdentity(t *testing.T) {
	g, ok := NewCatalog().Lookup(GateMeasure)
	require.True(t, ok)

	assert.True(t, g.IsMeasurement())
	assert.True(t, g.Matrix.EqualApprox(ID2, 0))
	assert.Zero(t, g.Angle)
}

func TestUnknownGate(t *testing.T) {
	c := NewCatalog()

	_, ok := c.Lookup("CCX")
	assert.False(t, ok)

	_, err := c.Resolve("CCX")
	assert.True(t, errors.Is(err, ErrUnknownGate))

	_, ok = c.Inverse("CCX")
	assert.False(t, ok)
}

func TestTGatePhase(t *testing.T) {
	g, _ := NewCatalog().Lookup(GateT)

	assertComplexNear(t, complex(math.Sqrt2/2, math.Sqrt2/2), g.Matrix.At(1, 1))
	assert.Equal(t, math.Pi/4, g.Angle)
}
