package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/rngstream"
	"github.com/sawpanic/strategyci/internal/statistic"
)

func sampleReturns() []float64 {
	return []float64{0.01, -0.02, 0.015, 0.003, -0.005, 0.02, 0.008, -0.01, 0.012, 0.004,
		0.006, -0.003, 0.018, 0.009, -0.007, 0.011, 0.002, -0.004, 0.013, 0.007}
}

func testProvider() rngstream.Provider {
	return rngstream.NewProvider(rngstream.NewKey(42).WithTag(7))
}

func TestNormalEngineProducesOrderedInterval(t *testing.T) {
	e := NewNormalEngine()
	e.MinB = 200
	res, err := e.Run(sampleReturns(), statistic.Mean, 0.95, 500, ciresult.TwoSided, testProvider())
	require.NoError(t, err)
	assert.Less(t, res.Lower, res.Upper)
	assert.Equal(t, 500, res.B)
	assert.Greater(t, res.EffectiveB, 0)
}

func TestBasicEngineProducesOrderedInterval(t *testing.T) {
	e := NewBasicEngine()
	e.MinB = 200
	res, err := e.Run(sampleReturns(), statistic.Mean, 0.9, 500, ciresult.TwoSided, testProvider())
	require.NoError(t, err)
	assert.Less(t, res.Lower, res.Upper)
}

func TestPercentileEngineProducesOrderedInterval(t *testing.T) {
	e := NewPercentileEngine()
	e.MinB = 200
	res, err := e.Run(sampleReturns(), statistic.Mean, 0.9, 500, ciresult.TwoSided, testProvider())
	require.NoError(t, err)
	assert.Less(t, res.Lower, res.Upper)
}

func TestBCaEngineProducesOrderedIntervalAndFiniteParams(t *testing.T) {
	e := NewBCaEngine()
	e.MinB = 300
	res, err := e.Run(sampleReturns(), statistic.Mean, 0.9, 600, ciresult.TwoSided, testProvider())
	require.NoError(t, err)
	assert.Less(t, res.Lower, res.Upper)
	assert.False(t, isNaNOrInf(res.Z0))
	assert.False(t, isNaNOrInf(res.Accel))
}

func TestMOutOfNEngineSubsampleSmallerThanN(t *testing.T) {
	xs := sampleReturns()
	e := NewMOutOfNEngine()
	e.MinB = 200
	res, err := e.Run(xs, statistic.Mean, 0.9, 500, ciresult.TwoSided, testProvider())
	require.NoError(t, err)
	assert.Less(t, res.Lower, res.Upper)
	assert.Less(t, res.MOuter, len(xs))
	assert.Greater(t, res.MOuter, 0)
}

func TestMRatioWithinUnitInterval(t *testing.T) {
	ratio := MRatio(20, 0.75)
	assert.Greater(t, ratio, 0.0)
	assert.Less(t, ratio, 1.0)
}

func TestPercentileTEngineProducesOrderedInterval(t *testing.T) {
	e := NewPercentileTEngine()
	e.MinBOuter = 100
	e.BInner = 150
	res, err := e.Run(sampleReturns(), statistic.Mean, 0.9, 200, ciresult.TwoSided, testProvider())
	require.NoError(t, err)
	assert.Less(t, res.Lower, res.Upper)
	assert.LessOrEqual(t, res.InnerAttemptedTotal, 200*150)
	assert.Greater(t, res.SEHat, 0.0)
}

func TestPercentileTRejectsInnerBelowFloor(t *testing.T) {
	e := NewPercentileTEngine()
	e.MinBOuter = 100
	e.BInner = 10
	e.MinBInner = 20
	_, err := e.Run(sampleReturns(), statistic.Mean, 0.9, 200, ciresult.TwoSided, testProvider())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPercentileTRejectsTooFewEffectiveReplicates(t *testing.T) {
	e := NewPercentileTEngine()
	e.MinBOuter = 10
	e.BInner = 150
	_, err := e.Run(sampleReturns(), statistic.Mean, 0.9, 10, ciresult.TwoSided, testProvider())
	assert.ErrorIs(t, err, ErrLogicError)
}

func TestEnginesRejectTooFewReplicates(t *testing.T) {
	_, err := NewNormalEngine().Run(sampleReturns(), statistic.Mean, 0.9, 10, ciresult.TwoSided, testProvider())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEnginesRejectBadConfidenceLevel(t *testing.T) {
	e := NewPercentileEngine()
	e.MinB = 100
	_, err := e.Run(sampleReturns(), statistic.Mean, 1.5, 500, ciresult.TwoSided, testProvider())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func isNaNOrInf(v float64) bool {
	return v != v || v > 1e300 || v < -1e300
}
