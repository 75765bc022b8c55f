package support

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/strategyci/internal/ciresult"
)

func TestUnboundedNeverViolates(t *testing.T) {
	s := NewUnbounded()
	assert.False(t, s.ViolatesLowerBound(-100))
}

func TestStrictLowerBoundViolatesBelowFloor(t *testing.T) {
	s := NewStrictLowerBound(0, 1e-9)
	assert.True(t, s.ViolatesLowerBound(-0.01))
	assert.False(t, s.ViolatesLowerBound(0.5))
}

func TestForStatisticProfitFactorIsLowerBounded(t *testing.T) {
	s := ForStatistic("profit_factor")
	assert.Equal(t, StrictLowerBound, s.Kind)
}

func TestForStatisticMeanIsUnbounded(t *testing.T) {
	s := ForStatistic("mean")
	assert.Equal(t, Unbounded, s.Kind)
}

func TestViolationsMapsPerCandidate(t *testing.T) {
	cands := []ciresult.Candidate{{Lower: -0.01}, {Lower: 0.2}}
	out := Violations(cands, ForStatistic("profit_factor"))
	assert.Equal(t, []bool{true, false}, out)
}
