// Package quantum provides the state simulation core for the Bloch sphere visualizer:
// complex linear algebra, the gate catalog, single-qubit states, the two-qubit density
// engine, projective measurement, entanglement classification and the cross-pair
// coupling approximation.
package quantum

import "math"

// Tolerances shared by every comparison in the simulation core.
const (
	// Epsilon is used for purity, probability and Bell-overlap checks.
	Epsilon = 1e-6
	// NormTolerance bounds the drift allowed on |α|²+|β|².
	NormTolerance = 1e-9
)

// invSqrt2 is 1/√2, the amplitude of an equal superposition.
var invSqrt2 = 1 / math.Sqrt2

// Add returns a+b.
func Add(a, b complex128) complex128 { return a + b }

// Mul returns a·b.
func Mul(a, b complex128) complex128 { return a * b }

// Conj returns the complex conjugate of a.
func Conj(a complex128) complex128 { return complex(real(a), -imag(a)) }

// Abs2 returns |a|², avoiding the square root taken by cmplx.Abs.
func Abs2(a complex128) float64 { return real(a)*real(a) + imag(a)*imag(a) }

// Scale returns a multiplied by the real factor s.
func Scale(a complex128, s float64) complex128 { return complex(real(a)*s, imag(a)*s) }
