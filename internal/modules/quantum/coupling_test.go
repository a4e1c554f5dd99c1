package quantum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMixtureCouplerFlipsWhenControlIsOne(t *testing.T) {
	control := BasisOne.State()
	target := BasisZero.State()

	out := MixtureCoupler{}.CoupleState(MarginalOne(control.Density()), target)

	_, isMixed := out.(Mixed)
	assert.True(t, isMixed, "coupling always yields a density matrix")
	assertMatrixNear(t, BasisOne.State().Density(), out.Density(), 1e-12)
	assert.InDelta(t, 1.0, SingleProbabilities(out).P1, 1e-12)
}

func TestMixtureCouplerLeavesTargetWhenControlIsZero(t *testing.T) {
	out := MixtureCoupler{}.CoupleState(0, BasisPlusI.State())

	assertMatrixNear(t, BasisPlusI.State().Density(), out.Density(), 1e-12)
}

func TestMixtureCouplerDestroysCoherence(t *testing.T) {
	// Control in |+⟩ gives p1 = 1/2; an exact CX would entangle, the mixture only
	// mixes the target's populations.
	p1 := MarginalOne(BasisPlus.State().Density())
	out := MixtureCoupler{}.CoupleState(p1, BasisZero.State())

	assertMatrixNear(t, Identity(2).Scale(0.5), out.Density(), 1e-12)
	assert.InDelta(t, 0.5, Purity(out.Density()), 1e-12)
}

func TestMixtureCouplerJointMatchesSingleMarginal(t *testing.T) {
	rho4 := ProductDensity(BasisZero.State(), BasisMinusI.State())
	p1 := 0.3

	joint := MixtureCoupler{}.CoupleJoint(p1, rho4, Slot1)
	single := MixtureCoupler{}.CoupleState(p1, BasisMinusI.State())

	assertMatrixNear(t, single.Density(), Reduced(joint, Slot1), 1e-12)
	assertMatrixNear(t, BasisZero.State().Density(), Reduced(joint, Slot0), 1e-12)
}

func TestMarginalOneClamps(t *testing.T) {
	assert.Equal(t, 1.0, MarginalOne(FromRows([][]complex128{{-0.1, 0}, {0, 1.1}})))
	assert.Equal(t, 0.0, MarginalOne(FromRows([][]complex128{{1, 0}, {0, -1e-17}})))
}
