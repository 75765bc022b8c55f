// Package bootstrap implements the six confidence-interval engines
// the tournament selector competes against each other: Normal, Basic,
// Percentile, BCa, m-out-of-n, and the nested, studentized
// Percentile-t. All six share the Result shape and the replicate-loop
// plumbing in this file; each method's own file implements only its
// distinguishing quantile/correction logic.
package bootstrap

import (
	"errors"
	"math"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/executor"
	"github.com/sawpanic/strategyci/internal/numeric"
	"github.com/sawpanic/strategyci/internal/resample"
	"github.com/sawpanic/strategyci/internal/rngstream"
)

// ErrInvalidArgument covers B below the engine's MinB floor, cl not in
// (0.5,1), n too small,
// and similar precondition failures common to every engine.
var ErrInvalidArgument = errors.New("bootstrap: invalid argument")

// ErrLogicError covers "fewer than 2 finite bootstrap statistics
// survived" and other conditions an engine cannot recover a candidate
// from.
var ErrLogicError = errors.New("bootstrap: logic error")

// Result is the common output shape of every engine. Fields that
// don't apply to a given method (e.g. the Percentile-t-only inner
// loop counters) are left at their zero value.
type Result struct {
	Mean, Lower, Upper float64
	CL                 float64
	N                  int

	B          int
	Skipped    int
	EffectiveB int

	BootstrapStats []float64

	Z0, Accel float64

	// Percentile-t-only diagnostics.
	BOuter              int
	BInner              int
	SkippedOuter        int
	SkippedInnerTotal   int
	InnerAttemptedTotal int
	SEHat               float64
	MOuter, MInner      int
	L                   int
	TStats              []float64
}

// CandidateBase projects a Result into a ciresult.Candidate tagged
// with method, the shape every engine's caller converts its raw
// Result into before handing it to penalty/scoring/tournament.
func (r Result) CandidateBase(method ciresult.MethodId) ciresult.Candidate {
	bOuter := r.B
	skipped := r.Skipped
	if method == ciresult.MethodPercentileT {
		bOuter = r.BOuter
		skipped = r.SkippedOuter
	}
	var innerFailRate float64
	if r.InnerAttemptedTotal > 0 {
		innerFailRate = float64(r.SkippedInnerTotal) / float64(r.InnerAttemptedTotal)
	}
	// Mean/Lower/Upper cross from float64 arithmetic into the engine's
	// at-rest Decimal representation and back at this boundary, the one
	// place a Result's continuous output is allowed to quantize. One-sided
	// intervals still carry finite, reachable bounds; the NaN passthrough
	// in quantize is reached when BCa reports NaN bounds for a non-finite
	// z0 or acceleration.
	return ciresult.Candidate{
		Method:           method,
		Mean:             quantize(r.Mean),
		Lower:            quantize(r.Lower),
		Upper:            quantize(r.Upper),
		CL:               r.CL,
		N:                r.N,
		BOuter:           bOuter,
		BInner:           r.BInner,
		EffectiveB:       r.EffectiveB,
		SkippedTotal:     skipped,
		BootstrapSE:      stdDev(r.BootstrapStats),
		Z0:               r.Z0,
		Accel:            r.Accel,
		InnerFailureRate: innerFailRate,
	}
}

func quantize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return numeric.ToFloat(numeric.FromFloat(v))
}

func validateCommon(n int, cl float64, b, minB int) error {
	if n < 2 {
		return ErrInvalidArgument
	}
	if !(cl > 0.5) || !(cl < 1) {
		return ErrInvalidArgument
	}
	if b < minB {
		return ErrInvalidArgument
	}
	return nil
}

// tailProbabilities maps a confidence level and interval shape to the
// (lower, upper) tail probabilities an engine targets. One-sided
// intervals push the opposite tail out to alpha/1000 from the edge of
// the unit interval rather than reporting an unbounded bound.
func tailProbabilities(cl float64, it ciresult.IntervalType) (lo, hi float64) {
	alpha := 1 - cl
	switch it {
	case ciresult.OneSidedLower:
		return alpha, 1 - alpha/1000
	case ciresult.OneSidedUpper:
		return alpha / 1000, 1 - alpha
	default:
		return alpha / 2, 1 - alpha/2
	}
}

// type7QuantileSorted computes the type-7 (linear interpolation
// between closest ranks) quantile of an already-sorted slice.
func type7QuantileSorted(sorted []float64, p float64) float64 {
	m := len(sorted)
	switch {
	case m == 0:
		return math.NaN()
	case m == 1:
		return sorted[0]
	}
	h := float64(m-1) * p
	k := int(math.Floor(h))
	frac := h - float64(k)
	if k+1 >= m {
		return sorted[m-1]
	}
	return sorted[k] + frac*(sorted[k+1]-sorted[k])
}

func sortedCopy(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

func clampUnit(v float64) float64 {
	switch {
	case v <= 0:
		return math.Nextafter(0, 1)
	case v >= 1:
		return math.Nextafter(1, 0)
	default:
		return v
	}
}

// replicatePass runs b independent replicates of resample-then-stat
// through exec, using prov to derive a deterministic, independent
// engine per replicate index. Non-finite statistic values are counted
// as skips and omitted from the returned slice, preserving the
// "skipped replicates never enter the order statistics" contract every
// engine relies on.
func replicatePass(x []float64, n, b int, statFn func([]float64) float64, rs resample.Resampler, prov rngstream.Provider, exec executor.Executor, log *zerolog.Logger) (stats []float64, skipped int) {
	raw := make([]float64, b)
	for i := range raw {
		raw[i] = math.NaN()
	}
	var skipCount atomic.Int64
	exec.ParallelForChunked(b, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			eng := prov.MakeEngine(i)
			resampled := rs.Resample(x, n, eng)
			v := statFn(resampled)
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				raw[i] = v
			} else {
				skipCount.Add(1)
			}
		}
	})
	out := make([]float64, 0, b)
	for _, v := range raw {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	skipped = int(skipCount.Load())
	if log != nil {
		log.Debug().Int("b", b).Int("effective_b", len(out)).Int("skipped", skipped).Msg("bootstrap replicate pass complete")
	}
	return out, skipped
}
