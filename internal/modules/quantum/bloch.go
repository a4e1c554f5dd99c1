package quantum

import "math"

// BlochYSign fixes the orientation of the y axis for the whole system. With -1,
// |i⟩ = (|0⟩ + i|1⟩)/√2 maps to (0, 1, 0).
const BlochYSign = -1.0

// Vector is a real 3-vector on or inside the Bloch sphere.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Length returns the Euclidean norm of v; √(2·purity−1) for a Bloch vector.
func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// BlochVector returns the Pauli expectation values of a single-qubit density matrix.
func BlochVector(rho Matrix) Vector {
	r01, r10 := rho.At(0, 1), rho.At(1, 0)
	return Vector{
		X: real(r01) + real(r10),
		Y: BlochYSign * (imag(r01) - imag(r10)),
		Z: real(rho.At(0, 0)) - real(rho.At(1, 1)),
	}
}

// BlochOf returns the Bloch vector of a qubit state in either representation.
func BlochOf(s State) Vector {
	return BlochVector(s.Density())
}
