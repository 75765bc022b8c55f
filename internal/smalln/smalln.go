// Package smalln implements the conservative helpers the tournament
// falls back to when a sample is too small, or too heavy-tailed, for
// the full bootstrap machinery to be trusted on its own: heavy-tail
// detection, a block-length chooser tuned for small n, an m-out-of-n
// ratio heuristic, and two combiners that blend multiple engines'
// results into one conservative interval near a decision hurdle.
//
// Grounded on SmallNBootstrapHelpers.h.
package smalln

import (
	"math"

	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/statistic"
)

// Heavy-tail thresholds: a sample with |skew| at or above
// SkewThreshold, or excess kurtosis at or above KurtosisThreshold, is
// considered heavy-tailed for the purposes of ChooseBlockSmallN and
// MNRatioFromN.
const (
	SkewThreshold     = 0.90
	KurtosisThreshold = 1.20
)

// IsHeavyTailed reports whether xs' sample skewness or excess kurtosis
// crosses the heavy-tail thresholds.
func IsHeavyTailed(xs []float64) bool {
	skew, exKurt := statistic.SkewAndExcessKurtosis(xs)
	return math.Abs(skew) >= SkewThreshold || exKurt >= KurtosisThreshold
}

// ChooseBlockSmallN picks a stationary-block mean length for a sample
// of size n: small samples get a short block (preserving replicate
// diversity) and heavy-tailed samples get a longer block (preserving
// more of the dependence structure across resamples): n/6, or n/3 when
// heavy-tailed, kept within [2, n/2], and 2 for n < 8.
func ChooseBlockSmallN(n int, heavyTailed bool) int {
	if n < 8 {
		return 2
	}
	l := n / 6
	if heavyTailed {
		l = n / 3
	}
	if l < 2 {
		l = 2
	}
	if max := n / 2; l > max {
		l = max
	}
	return l
}

// MNRatioFromN returns an m-out-of-n subsample ratio by sample-size
// band: 0.6 for n < 20, 0.7 for n < 50, 0.8 above, each 0.1 lower when
// heavy-tailed. MOutOfNEngine does not call it; the engine sizes its
// subsample as round(n^Gamma).
func MNRatioFromN(n int, heavyTailed bool) float64 {
	switch {
	case n < 20:
		if heavyTailed {
			return 0.5
		}
		return 0.6
	case n < 50:
		if heavyTailed {
			return 0.6
		}
		return 0.7
	default:
		if heavyTailed {
			return 0.7
		}
		return 0.8
	}
}

// DuelCombine blends two candidate intervals (typically the
// tournament's chosen engine and a conservative m-out-of-n run) by
// taking the wider bound on each side — "the more conservative of the
// two engines wins" — used when small-N diagnostics indicate neither
// engine alone should be trusted.
func DuelCombine(a, b ciresult.Candidate) ciresult.Candidate {
	out := a
	out.Lower = math.Min(a.Lower, b.Lower)
	out.Upper = math.Max(a.Upper, b.Upper)
	return out
}

// NearHurdleCombine widens a candidate's interval toward a decision
// hurdle when the candidate's bound sits within marginFrac of the
// hurdle, preventing a borderline small-N estimate from crossing a
// go/no-go threshold on sampling noise alone.
func NearHurdleCombine(c ciresult.Candidate, hurdle, marginFrac float64) ciresult.Candidate {
	out := c
	width := c.Upper - c.Lower
	if width <= 0 {
		return out
	}
	margin := marginFrac * width

	if math.Abs(c.Lower-hurdle) <= margin {
		if c.Lower > hurdle {
			out.Lower = hurdle
		} else {
			out.Lower -= margin
		}
	}
	if math.Abs(c.Upper-hurdle) <= margin {
		if c.Upper < hurdle {
			out.Upper = hurdle
		} else {
			out.Upper += margin
		}
	}
	return out
}
