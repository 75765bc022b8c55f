// Package statistic provides the pure scalar-statistic functors the
// bootstrap engines run against a return sample: mean, a winsorized
// log1p-based geometric mean, and a profit-factor ratio. Each is a
// deterministic, side-effect-free func([]float64) float64, matching
// the core's "Statistic functor" data model entry.
package statistic

import (
	"math"
	"sort"
)

// Func is the common shape every bootstrap engine accepts.
type Func func(xs []float64) float64

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// GeoMean returns the geometric mean of per-period returns xs (each
// r_i > -1) expressed as a simple return: exp(mean(log1p(r_i))) - 1.
// Values at or below -1 are treated as a total-loss floor rather than
// producing -Inf, keeping the functor total over any finite sample.
func GeoMean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		r := x
		if r <= -1 {
			r = -1 + 1e-12
		}
		sum += math.Log1p(r)
	}
	return math.Expm1(sum / float64(len(xs)))
}

// WinsorizedGeoMean clamps each return to within k standard deviations
// of the sample mean before applying GeoMean, dampening the influence
// of single extreme-tail observations the way a heavy-tailed trade
// blowup would otherwise dominate a small sample.
func WinsorizedGeoMean(k float64) Func {
	return func(xs []float64) float64 {
		return GeoMean(winsorize(xs, k))
	}
}

func winsorize(xs []float64, k float64) []float64 {
	if len(xs) == 0 {
		return xs
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(xs)))
	if sd == 0 {
		return xs
	}
	lo, hi := m-k*sd, m+k*sd
	out := make([]float64, len(xs))
	for i, x := range xs {
		switch {
		case x < lo:
			out[i] = lo
		case x > hi:
			out[i] = hi
		default:
			out[i] = x
		}
	}
	return out
}

// ProfitFactor returns the ratio of the sum of positive returns to the
// absolute sum of negative returns, the canonical ratio-class
// statistic the scoring profiles (see internal/scoring) treat
// distinctly from returns-based statistics. Returns +Inf when there
// are gains and no losses, NaN when the sample is empty or flat.
func ProfitFactor(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var gains, losses float64
	for _, x := range xs {
		if x > 0 {
			gains += x
		} else if x < 0 {
			losses += -x
		}
	}
	if losses == 0 {
		if gains == 0 {
			return math.NaN()
		}
		return math.Inf(1)
	}
	return gains / losses
}

// SkewAndExcessKurtosis returns the sample skewness and excess
// kurtosis of xs, used by the small-N heavy-tail heuristic.
func SkewAndExcessKurtosis(xs []float64) (skew, exKurt float64) {
	n := len(xs)
	if n < 2 {
		return 0, 0
	}
	m := Mean(xs)
	var m2, m3, m4 float64
	for _, x := range xs {
		d := x - m
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	m2 /= float64(n)
	m3 /= float64(n)
	m4 /= float64(n)
	sd := math.Sqrt(m2)
	if sd == 0 {
		return 0, 0
	}
	skew = m3 / (sd * sd * sd)
	exKurt = m4/(m2*m2) - 3
	return skew, exKurt
}

// Median returns the median of a sorted copy of xs without mutating
// the caller's slice.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
