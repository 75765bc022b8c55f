// Package numeric provides the fixed-precision decimal facade used
// throughout the bootstrap engine, along with the handful of domain
// constants the statistics code clamps against.
package numeric

import (
	"math"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.DivisionPrecision = 16
}

// Decimal is the fixed-precision value type of this facade. Statistics,
// bounds, and penalties are carried as float64 throughout; a candidate's
// reported Mean/Lower/Upper pass through a Decimal at QuantizeExp once,
// in bootstrap's CandidateBase, and are converted back to float64.
type Decimal = decimal.Decimal

// QuantizeExp is the decimal exponent results are rounded to when they
// cross back from float64 into Decimal. 1e-8 matches the round-trip
// tolerance the annualizer's tests are written against.
const QuantizeExp = -8

var (
	// NegOne, Zero, One and Hundred are the domain constants the engine
	// clamps returns, confidence levels, and scaled percentages against.
	NegOne  = decimal.NewFromInt(-1)
	Zero    = decimal.Zero
	One     = decimal.NewFromInt(1)
	Hundred = decimal.NewFromInt(100)
)

// FromFloat quantizes a float64 into a Decimal at QuantizeExp, the one
// place float64 arithmetic is allowed to leak into the Decimal world.
func FromFloat(f float64) Decimal {
	return decimal.NewFromFloat(f).Round(-QuantizeExp)
}

// ToFloat is the explicit, always-available escape hatch back to
// float64 for the numerically heavy code paths (quantile search,
// log1p/exp, RNG draws) that cannot run in fixed-point.
func ToFloat(d Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Mean returns the arithmetic mean of xs as a float64; callers quantize
// to Decimal only once, at the statistic boundary.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Variance returns the population variance of xs.
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs))
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) float64 {
	v := Variance(xs)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}
