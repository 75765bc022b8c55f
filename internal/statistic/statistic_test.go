package statistic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestGeoMeanFloorsAtTotalLoss(t *testing.T) {
	v := GeoMean([]float64{-1.5, 0.1})
	assert.False(t, math.IsInf(v, 0))
	assert.False(t, math.IsNaN(v))
}

func TestGeoMeanMatchesCompounding(t *testing.T) {
	xs := []float64{0.01, 0.02, -0.01}
	got := GeoMean(xs)
	want := math.Exp((math.Log1p(0.01)+math.Log1p(0.02)+math.Log1p(-0.01))/3) - 1
	assert.InDelta(t, want, got, 1e-12)
}

func TestWinsorizedGeoMeanDampensOutlier(t *testing.T) {
	xs := []float64{0.01, 0.02, -0.01, 0.015, 0.009, 5.0}
	plain := GeoMean(xs)
	winsorized := WinsorizedGeoMean(2.0)(xs)
	assert.Less(t, winsorized, plain)
}

func TestProfitFactorAllGainsIsInf(t *testing.T) {
	pf := ProfitFactor([]float64{0.01, 0.02, 0.03})
	assert.True(t, math.IsInf(pf, 1))
}

func TestProfitFactorMixed(t *testing.T) {
	pf := ProfitFactor([]float64{0.02, -0.01})
	assert.InDelta(t, 2.0, pf, 1e-9)
}

func TestProfitFactorEmptyIsNaN(t *testing.T) {
	assert.True(t, math.IsNaN(ProfitFactor(nil)))
}

func TestSkewAndExcessKurtosisSymmetric(t *testing.T) {
	xs := []float64{-2, -1, 0, 1, 2}
	skew, _ := SkewAndExcessKurtosis(xs)
	assert.InDelta(t, 0.0, skew, 1e-9)
}

func TestMedianOddAndEven(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3, 2, 4}))
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	_ = Median(xs)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}
