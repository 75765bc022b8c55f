package annualize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneMatchesCompounding(t *testing.T) {
	y, err := One(0.001, 252, 0, 0)
	require.NoError(t, err)
	want := math.Pow(1.001, 252) - 1
	assert.InDelta(t, want, y, 1e-9)
	assert.Greater(t, y, -1.0)
}

func TestOneRejectsBadK(t *testing.T) {
	_, err := One(0.01, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = One(0.01, math.NaN(), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRoundTrip(t *testing.T) {
	r := 0.0025
	k := 12.0
	annual, err := One(r, k, 0, 0)
	require.NoError(t, err)
	back, err := Deannualize(annual, k, 0, 0)
	require.NoError(t, err)
	assert.InDelta(t, r, back, 1e-8)
}

func TestTripletPreservesOrdering(t *testing.T) {
	in := Triplet{Lower: -0.01, Mean: 0.003, Upper: 0.02}
	out, err := AnnualizeTriplet(in, 252, 0, 0)
	require.NoError(t, err)
	assert.Less(t, out.Lower, out.Mean)
	assert.Less(t, out.Mean, out.Upper)
}

func TestFactorIntradayRequiresMinutes(t *testing.T) {
	_, err := Factor(Intraday, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	f, err := Factor(Intraday, 15, 252, 6.5)
	require.NoError(t, err)
	assert.InDelta(t, 6.5*4*252, f, 1e-9)
}

func TestFactorStandardTimeframes(t *testing.T) {
	f, _ := Factor(Daily, 0, 0, 0)
	assert.Equal(t, 252.0, f)
	f, _ = Factor(Weekly, 0, 0, 0)
	assert.Equal(t, 52.0, f)
	f, _ = Factor(Monthly, 0, 0, 0)
	assert.Equal(t, 12.0, f)
	f, _ = Factor(Quarterly, 0, 0, 0)
	assert.Equal(t, 4.0, f)
	f, _ = Factor(Yearly, 0, 0, 0)
	assert.Equal(t, 1.0, f)
}

func TestEffectiveFactorFloorsAtOne(t *testing.T) {
	assert.Equal(t, 1.0, EffectiveFactor(0, 0))
	assert.Equal(t, 10.0, EffectiveFactor(2, 5))
}
