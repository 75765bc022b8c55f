package bootstrap

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/executor"
	"github.com/sawpanic/strategyci/internal/normaldist"
	"github.com/sawpanic/strategyci/internal/resample"
	"github.com/sawpanic/strategyci/internal/rngstream"
)

// NormalEngine builds an interval around the point estimate stat(xs)
// from the bootstrap distribution's standard error: stat(xs) + z*se at
// each tail's normal quantile z. It is the
// weakest method in the tournament's preference order (MethodNormal)
// and exists mainly as a sanity-check baseline and a fallback when
// every richer method fails its gates.
type NormalEngine struct {
	Resampler resample.Resampler
	Exec      executor.Executor
	Log       *zerolog.Logger
	MinB      int
}

// NewNormalEngine returns a NormalEngine with sensible defaults
// (IID resampling, single-threaded execution, B>=1000).
func NewNormalEngine() NormalEngine {
	return NormalEngine{Resampler: resample.IID{}, Exec: executor.SingleThreaded{}, MinB: 1000}
}

// Run draws b bootstrap replicates of stat under Resampler, then
// reports stat(xs) + z*stdDev(replicates) at the lower and upper tail
// quantiles z that tailProbabilities gives for cl and it.
func (e NormalEngine) Run(xs []float64, stat func([]float64) float64, cl float64, b int, it ciresult.IntervalType, prov rngstream.Provider) (Result, error) {
	minB := e.MinB
	if minB == 0 {
		minB = 1000
	}
	if err := validateCommon(len(xs), cl, b, minB); err != nil {
		return Result{}, err
	}
	rs := e.Resampler
	if rs == nil {
		rs = resample.IID{}
	}
	exec := e.Exec
	if exec == nil {
		exec = executor.SingleThreaded{}
	}

	stats, skipped := replicatePass(xs, len(xs), b, stat, rs, prov, exec, e.Log)
	effB := len(stats)
	if effB < 2 {
		return Result{}, ErrLogicError
	}

	pointEst := stat(xs)
	se := stdDev(stats)

	pLo, pHi := tailProbabilities(cl, it)
	zLo, zHi := normaldist.Quantile(pLo), normaldist.Quantile(pHi)
	lower, upper := pointEst+zLo*se, pointEst+zHi*se

	return Result{
		Mean: pointEst, Lower: lower, Upper: upper, CL: cl, N: len(xs),
		B: b, Skipped: skipped, EffectiveB: effB, BootstrapStats: stats,
	}, nil
}

func stdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var m float64
	for _, v := range xs {
		m += v
	}
	m /= float64(n)
	var ss float64
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
