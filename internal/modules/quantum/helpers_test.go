package quantum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testTol = 1e-9

// fixedSampler always returns the same draw.
type fixedSampler float64

func (f fixedSampler) Float64() float64 { return float64(f) }

func assertComplexNear(t *testing.T, want, got complex128, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, real(want), real(got), testTol, msgAndArgs...)
	assert.InDelta(t, imag(want), imag(got), testTol, msgAndArgs...)
}

func assertMatrixNear(t *testing.T, want, got Matrix, tol float64) {
	t.Helper()
	if !assert.Equal(t, want.Dim(), got.Dim(), "dimension") {
		return
	}
	for i := 0; i < want.Dim(); i++ {
		for j := 0; j < want.Dim(); j++ {
			w, g := want.At(i, j), got.At(i, j)
			if math.Abs(real(w)-real(g)) > tol || math.Abs(imag(w)-imag(g)) > tol {
				t.Errorf("element (%d,%d): want %v, got %v", i, j, w, g)
			}
		}
	}
}

func assertVectorNear(t *testing.T, want, got Vector) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-6, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-6, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-6, "z")
}

// sampleMixed is a valid, non-pure single-qubit density matrix.
func sampleMixed() Matrix {
	return FromRows([][]complex128{
		{0.7, complex(0.1, -0.2)},
		{complex(0.1, 0.2), 0.3},
	})
}
