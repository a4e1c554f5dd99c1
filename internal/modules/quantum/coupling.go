package quantum

import "math"

// Coupler models a CX whose operands are not both members of the tracked pair.
type Coupler interface {
	// CoupleState returns the target's state after the CX, given the probability
	// that the control reads |1⟩.
	CoupleState(controlP1 float64, target State) State
	// CoupleJoint applies the same policy to a target held on slot of the joint matrix.
	CoupleJoint(controlP1 float64, rho4 Matrix, targetSlot int) Matrix
}

// MarginalOne returns the probability that a qubit reads |1⟩, clamped to [0, 1].
func MarginalOne(rho Matrix) float64 {
	return math.Max(0, math.Min(1, real(rho.At(1, 1))))
}

// MixtureCoupler replaces the target with the classical mixture
// (1−p1)·ρ + p1·XρX†. Marginal statistics are kept; control/target coherence is not.
type MixtureCoupler struct{}

// CoupleState implements Coupler. The result is always a density matrix.
func (MixtureCoupler) CoupleState(controlP1 float64, target State) State {
	rho := target.Density()
	flipped := rho.Conjugate(PauliX)
	return Mixed{Rho: rho.Mix(flipped, controlP1)}
}

// CoupleJoint implements Coupler.
func (MixtureCoupler) CoupleJoint(controlP1 float64, rho4 Matrix, targetSlot int) Matrix {
	flipped := rho4.Conjugate(Embed(PauliX, targetSlot))
	return rho4.Mix(flipped, controlP1)
}
