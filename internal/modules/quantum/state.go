package quantum

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// ErrInvalidBasis is returned when an initial-state selector is not recognised.
var ErrInvalidBasis = errors.New("invalid initial basis")

// State is the state held by a qubit wire: exactly one of Pure or Mixed.
type State interface {
	// Density returns the 2×2 density matrix of the state.
	Density() Matrix
	isState()
}

// Pure is a normalised ket α|0⟩ + β|1⟩.
type Pure struct {
	Alpha complex128
	Beta  complex128
}

// Mixed is a single-qubit density matrix that is not rank-1.
type Mixed struct {
	Rho Matrix
}

func (Pure) isState()  {}
func (Mixed) isState() {}

// NewPure returns the normalised ket with the given amplitudes. A zero vector is
// left as is rather than divided by zero.
func NewPure(alpha, beta complex128) Pure {
	n := math.Sqrt(Abs2(alpha) + Abs2(beta))
	if n < 1e-12 {
		n = 1
	}
	return Pure{Alpha: Scale(alpha, 1/n), Beta: Scale(beta, 1/n)}
}

// Density returns |ψ⟩⟨ψ|.
func (p Pure) Density() Matrix {
	a, b := p.Alpha, p.Beta
	return FromRows([][]complex128{
		{a * Conj(a), a * Conj(b)},
		{b * Conj(a), b * Conj(b)},
	})
}

// Norm2 returns |α|²+|β|².
func (p Pure) Norm2() float64 { return Abs2(p.Alpha) + Abs2(p.Beta) }

// Density returns the stored matrix.
func (m Mixed) Density() Matrix { return m.Rho }

// ApplyGate applies g to s and returns a state of the same representation kind:
// kets are multiplied and renormalised, density matrices are conjugated.
func ApplyGate(s State, g Gate) State {
	switch st := s.(type) {
	case Pure:
		m := g.Matrix
		return NewPure(
			m.At(0, 0)*st.Alpha+m.At(0, 1)*st.Beta,
			m.At(1, 0)*st.Alpha+m.At(1, 1)*st.Beta,
		)
	case Mixed:
		return Mixed{Rho: st.Rho.Conjugate(g.Matrix)}
	default:
		panic(fmt.Sprintf("quantum: unknown state type %T", s))
	}
}

// Purity returns tr(ρ²) for a density matrix.
func Purity(rho Matrix) float64 {
	return real(rho.TraceProduct(rho))
}

// IsPure reports whether rho has purity 1 within Epsilon.
func IsPure(rho Matrix) bool {
	return scalar.EqualWithinAbs(Purity(rho), 1, Epsilon)
}

// StatePurity returns the purity of a state in either representation.
func StatePurity(s State) float64 {
	if _, ok := s.(Pure); ok {
		return 1
	}
	return Purity(s.Density())
}

// ToPure reconstructs the ket of a rank-1 2×2 density matrix, up to global phase.
// It reports false when the purity is measurably below 1.
func ToPure(rho Matrix) (Pure, bool) {
	if !IsPure(rho) {
		return Pure{}, false
	}
	rho00 := math.Max(0, real(rho.At(0, 0)))
	rho11 := math.Max(0, real(rho.At(1, 1)))
	aMag := math.Sqrt(rho00)

	alpha := complex(aMag, 0)
	var beta complex128
	if aMag > Epsilon {
		// ρ₀₁ = α·β*
		beta = Conj(rho.At(0, 1) / alpha)
	} else {
		beta = complex(math.Sqrt(rho11), 0)
	}
	return NewPure(alpha, beta), true
}

// FromDensity returns the ket form of rho when it is pure, otherwise rho itself.
func FromDensity(rho Matrix) State {
	if p, ok := ToPure(rho); ok {
		return p
	}
	return Mixed{Rho: rho}
}

// Basis is one of the six initial-state selectors.
type Basis string

// Initial-state selectors.
const (
	BasisZero   Basis = "0"
	BasisOne    Basis = "1"
	BasisPlus   Basis = "+"
	BasisMinus  Basis = "-"
	BasisPlusI  Basis = "i"
	BasisMinusI Basis = "-i"

	DefaultBasis = BasisZero
)

// Bases lists every selector in display order.
var Bases = []Basis{BasisZero, BasisOne, BasisPlus, BasisMinus, BasisPlusI, BasisMinusI}

// ParseBasis validates a selector.
func ParseBasis(s string) (Basis, error) {
	for _, b := range Bases {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBasis, s)
}

// State returns the ket for the selector. Unknown selectors yield |0⟩.
func (b Basis) State() Pure {
	h := complex(invSqrt2, 0)
	switch b {
	case BasisOne:
		return Pure{Alpha: 0, Beta: 1}
	case BasisPlus:
		return Pure{Alpha: h, Beta: h}
	case BasisMinus:
		return Pure{Alpha: h, Beta: -h}
	case BasisPlusI:
		return Pure{Alpha: h, Beta: complex(0, invSqrt2)}
	case BasisMinusI:
		return Pure{Alpha: h, Beta: complex(0, -invSqrt2)}
	default:
		return Pure{Alpha: 1, Beta: 0}
	}
}

type pureJSON struct {
	Kind  string     `json:"kind"`
	Alpha [2]float64 `json:"alpha"`
	Beta  [2]float64 `json:"beta"`
}

type mixedJSON struct {
	Kind string `json:"kind"`
	Rho  Matrix `json:"rho"`
}

// MarshalJSON tags the ket variant.
func (p Pure) MarshalJSON() ([]byte, error) {
	return json.Marshal(pureJSON{
		Kind:  "pure",
		Alpha: [2]float64{real(p.Alpha), imag(p.Alpha)},
		Beta:  [2]float64{real(p.Beta), imag(p.Beta)},
	})
}

// MarshalJSON tags the density-matrix variant.
func (m Mixed) MarshalJSON() ([]byte, error) {
	return json.Marshal(mixedJSON{Kind: "mixed", Rho: m.Rho})
}
