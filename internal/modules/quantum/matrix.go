package quantum

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/cmplxs"
)

// Matrix is a square complex matrix stored row-major.
// Every operation returns a new Matrix; receivers are never mutated.
type Matrix struct {
	n    int
	data []complex128
}

// NewMatrix returns the n×n zero matrix.
func NewMatrix(n int) Matrix {
	return Matrix{n: n, data: make([]complex128, n*n)}
}

// Identity returns the n×n identity matrix.
func Identity(n int) Matrix {
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// FromRows builds a matrix from row slices. It panics if the rows are not square,
// since every caller builds matrices from fixed literals.
func FromRows(rows [][]complex128) Matrix {
	n := len(rows)
	m := NewMatrix(n)
	for i, row := range rows {
		if len(row) != n {
			panic(fmt.Sprintf("quantum: row %d has %d columns, want %d", i, len(row), n))
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m
}

// Dim returns the matrix dimension.
func (m Matrix) Dim() int { return m.n }

// At returns the element at row i, column j.
func (m Matrix) At(i, j int) complex128 { return m.data[i*m.n+j] }

// With returns a copy of m with element (i, j) replaced by v.
func (m Matrix) With(i, j int, v complex128) Matrix {
	out := m.clone()
	out.data[i*m.n+j] = v
	return out
}

// Rows returns a copy of the matrix as row slices.
func (m Matrix) Rows() [][]complex128 {
	rows := make([][]complex128, m.n)
	for i := range rows {
		rows[i] = append([]complex128(nil), m.data[i*m.n:(i+1)*m.n]...)
	}
	return rows
}

func (m Matrix) clone() Matrix {
	return Matrix{n: m.n, data: append([]complex128(nil), m.data...)}
}

func (m Matrix) general() cblas128.General {
	return cblas128.General{Rows: m.n, Cols: m.n, Data: m.data, Stride: m.n}
}

// Mul returns m·b.
func (m Matrix) Mul(b Matrix) Matrix {
	m.mustMatch(b)
	out := NewMatrix(m.n)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, m.general(), b.general(), 0, out.general())
	return out
}

// Adjoint returns the conjugate transpose m†.
func (m Matrix) Adjoint() Matrix {
	out := NewMatrix(m.n)
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			out.data[i*m.n+j] = Conj(m.data[j*m.n+i])
		}
	}
	return out
}

// Conjugate returns u·m·u†, the action of the operator u on the density matrix m.
func (m Matrix) Conjugate(u Matrix) Matrix {
	m.mustMatch(u)
	um := u.Mul(m)
	out := NewMatrix(m.n)
	cblas128.Gemm(blas.NoTrans, blas.ConjTrans, 1, um.general(), u.general(), 0, out.general())
	return out
}

// Add returns m+b.
func (m Matrix) Add(b Matrix) Matrix {
	m.mustMatch(b)
	out := m.clone()
	cmplxs.Add(out.data, b.data)
	return out
}

// Scale returns s·m.
func (m Matrix) Scale(s complex128) Matrix {
	out := m.clone()
	cmplxs.Scale(s, out.data)
	return out
}

// Mix returns (1-p)·m + p·b, a classical mixture of two density matrices.
func (m Matrix) Mix(b Matrix, p float64) Matrix {
	m.mustMatch(b)
	out := m.Scale(complex(1-p, 0))
	cmplxs.AddScaled(out.data, complex(p, 0), b.data)
	return out
}

// Trace returns the sum of the diagonal.
func (m Matrix) Trace() complex128 {
	var t complex128
	for i := 0; i < m.n; i++ {
		t += m.data[i*m.n+i]
	}
	return t
}

// TraceProduct returns tr(m·b) without materialising the product.
func (m Matrix) TraceProduct(b Matrix) complex128 {
	m.mustMatch(b)
	var t complex128
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			t += m.data[i*m.n+j] * b.data[j*m.n+i]
		}
	}
	return t
}

// EqualApprox reports whether m and b agree element-wise within tol.
func (m Matrix) EqualApprox(b Matrix, tol float64) bool {
	if m.n != b.n {
		return false
	}
	return cmplxs.EqualApprox(m.data, b.data, tol)
}

func (m Matrix) mustMatch(b Matrix) {
	if m.n != b.n {
		panic(fmt.Sprintf("quantum: dimension mismatch %d != %d", m.n, b.n))
	}
}

// MarshalJSON encodes the matrix as rows of [re, im] pairs.
func (m Matrix) MarshalJSON() ([]byte, error) {
	rows := make([][][2]float64, m.n)
	for i := range rows {
		rows[i] = make([][2]float64, m.n)
		for j := range rows[i] {
			z := m.At(i, j)
			rows[i][j] = [2]float64{real(z), imag(z)}
		}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes rows of [re, im] pairs.
func (m *Matrix) UnmarshalJSON(b []byte) error {
	var rows [][][2]float64
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	n := len(rows)
	out := NewMatrix(n)
	for i, row := range rows {
		if len(row) != n {
			return fmt.Errorf("matrix row %d has %d entries, want %d", i, len(row), n)
		}
		for j, z := range row {
			out.data[i*n+j] = complex(z[0], z[1])
		}
	}
	*m = out
	return nil
}
