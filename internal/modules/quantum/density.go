package quantum

import "fmt"

// Slots of the tracked pair inside the joint 4×4 density matrix. Basis index is
// 2·bit(slot 0) + bit(slot 1).
const (
	Slot0 = 0
	Slot1 = 1
)

// Two-qubit controlled-NOT operators for both orientations of the tracked pair.
var (
	CXControl0 = FromRows([][]complex128{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
	})
	CXControl1 = FromRows([][]complex128{
		{1, 0, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
	})
)

// Tensor returns the Kronecker product a⊗b.
func Tensor(a, b Matrix) Matrix {
	na, nb := a.Dim(), b.Dim()
	n := na * nb
	out := NewMatrix(n)
	for i := 0; i < na; i++ {
		for j := 0; j < na; j++ {
			aij := a.At(i, j)
			for k := 0; k < nb; k++ {
				for l := 0; l < nb; l++ {
					out.data[(i*nb+k)*n+(j*nb+l)] = aij * b.At(k, l)
				}
			}
		}
	}
	return out
}

// ProductDensity returns the joint density matrix of two independent qubits.
func ProductDensity(a, b State) Matrix {
	return Tensor(a.Density(), b.Density())
}

// Embed lifts a single-qubit operator onto the given slot of the pair: U⊗I or I⊗U.
func Embed(u Matrix, slot int) Matrix {
	if slot == Slot0 {
		return Tensor(u, ID2)
	}
	return Tensor(ID2, u)
}

// CXOperator returns the CNOT whose control sits on controlSlot.
func CXOperator(controlSlot int) Matrix {
	if controlSlot == Slot0 {
		return CXControl0
	}
	return CXControl1
}

// ApplyUnitary returns v·ρ·v†.
func ApplyUnitary(rho4, v Matrix) Matrix {
	return rho4.Conjugate(v)
}

// PartialTrace reduces the joint matrix by summing out traceSlot, returning the
// density matrix of the other slot.
func PartialTrace(rho4 Matrix, traceSlot int) Matrix {
	if rho4.Dim() != 4 {
		panic(fmt.Sprintf("quantum: partial trace needs a 4×4 matrix, got %d", rho4.Dim()))
	}
	out := NewMatrix(2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			var sum complex128
			for k := 0; k < 2; k++ {
				var row, col int
				if traceSlot == Slot0 {
					row, col = k*2+i, k*2+j
				} else {
					row, col = i*2+k, j*2+k
				}
				sum += rho4.At(row, col)
			}
			out.data[i*2+j] = sum
		}
	}
	return out
}

// Reduced returns the reduced density matrix of the qubit on slot.
func Reduced(rho4 Matrix, slot int) Matrix {
	return PartialTrace(rho4, 1-slot)
}
