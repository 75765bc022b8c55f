package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFloatRoundTrip(t *testing.T) {
	d := FromFloat(0.123456789)
	f := ToFloat(d)
	assert.InDelta(t, 0.12345679, f, 1e-8)
}

func TestDomainConstants(t *testing.T) {
	assert.Equal(t, -1.0, ToFloat(NegOne))
	assert.Equal(t, 0.0, ToFloat(Zero))
	assert.Equal(t, 1.0, ToFloat(One))
	assert.Equal(t, 100.0, ToFloat(Hundred))
}

func TestMeanVarianceStdDev(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, Mean(xs))
	assert.InDelta(t, 2.0, Variance(xs), 1e-9)
	assert.InDelta(t, 1.4142135623, StdDev(xs), 1e-9)
}

func TestMeanEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Variance(nil))
	assert.Equal(t, 0.0, StdDev(nil))
}
