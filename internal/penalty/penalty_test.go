package penalty

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/strategyci/internal/ciresult"
)

func TestOrderingZeroWhenWellFormed(t *testing.T) {
	c := ciresult.Candidate{Lower: -0.01, Mean: 0.01, Upper: 0.03}
	assert.Equal(t, 0.0, Ordering(c))
}

func TestOrderingPositiveWhenCrossed(t *testing.T) {
	c := ciresult.Candidate{Lower: 0.05, Mean: 0.01, Upper: 0.03}
	assert.Greater(t, Ordering(c), 0.0)
}

func TestLengthRatioBounded(t *testing.T) {
	c := ciresult.Candidate{Lower: 0, Upper: 0.02}
	p := Length(c, 0.04)
	assert.Greater(t, p, 0.0)
	assert.InDelta(t, 0.5*0.5/RefLengthErrorSq, p, 1e-12)
}

func TestLengthInfWhenNoWidest(t *testing.T) {
	c := ciresult.Candidate{Lower: 0, Upper: 0.01}
	assert.True(t, math.IsInf(Length(c, 0), 1))
}

func TestStabilityZeroForPlainMethods(t *testing.T) {
	c := ciresult.Candidate{Method: ciresult.MethodPercentile}
	assert.Equal(t, 0.0, Stability(c))
}

func TestStabilityInfOnNonFiniteBCaParams(t *testing.T) {
	c := ciresult.Candidate{Method: ciresult.MethodBCa, Z0: math.NaN()}
	assert.True(t, math.IsInf(Stability(c), 1))
}

func TestStabilityFiniteForWellFormedBCa(t *testing.T) {
	c := ciresult.Candidate{Method: ciresult.MethodBCa, Z0: 0.1, Accel: 0.02}
	p := Stability(c)
	assert.False(t, math.IsInf(p, 0))
	assert.Greater(t, p, 0.0)
}

func TestSkewNaNSaturatesToInf(t *testing.T) {
	c := ciresult.Candidate{Skewness: math.NaN()}
	assert.True(t, math.IsInf(Skew(c), 1))
}

func TestSkewFiniteOtherwise(t *testing.T) {
	c := ciresult.Candidate{Skewness: 0.5}
	assert.InDelta(t, 0.25, Skew(c), 1e-12)
}

func TestCenterShiftZeroWhenCentered(t *testing.T) {
	c := ciresult.Candidate{Mean: 0.01, Lower: 0, Upper: 0.02, BootstrapSE: 0.01}
	assert.Equal(t, 0.0, CenterShift(c))
}

func TestDomainInfWhenViolated(t *testing.T) {
	assert.True(t, math.IsInf(Domain(ciresult.Candidate{}, true), 1))
	assert.Equal(t, 0.0, Domain(ciresult.Candidate{}, false))
}

func TestWidestFindsMax(t *testing.T) {
	cands := []ciresult.Candidate{
		{Lower: 0, Upper: 0.01},
		{Lower: 0, Upper: 0.05},
		{Lower: -0.01, Upper: 0.02},
	}
	assert.InDelta(t, 0.05, Widest(cands, nil), 1e-12)
}

func TestWidestEmptySet(t *testing.T) {
	assert.Equal(t, 0.0, Widest(nil, nil))
}
