package bootstrap

import (
	"github.com/rs/zerolog"

	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/executor"
	"github.com/sawpanic/strategyci/internal/resample"
	"github.com/sawpanic/strategyci/internal/rngstream"
)

// PercentileEngine reads the confidence bounds directly off the
// empirical distribution of bootstrap replicates: the simplest, and
// the one most vulnerable to skewed sampling distributions.
type PercentileEngine struct {
	Resampler resample.Resampler
	Exec      executor.Executor
	Log       *zerolog.Logger
	MinB      int
}

// NewPercentileEngine returns a PercentileEngine with sensible defaults.
func NewPercentileEngine() PercentileEngine {
	return PercentileEngine{Resampler: resample.IID{}, Exec: executor.SingleThreaded{}, MinB: 1000}
}

func (e PercentileEngine) Run(xs []float64, stat func([]float64) float64, cl float64, b int, it ciresult.IntervalType, prov rngstream.Provider) (Result, error) {
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
	sorted := sortedCopy(stats)
	pLo, pHi := tailProbabilities(cl, it)

	lower := type7QuantileSorted(sorted, pLo)
	upper := type7QuantileSorted(sorted, pHi)

	return Result{
		Mean: pointEst, Lower: lower, Upper: upper, CL: cl, N: len(xs),
		B: b, Skipped: skipped, EffectiveB: effB, BootstrapStats: stats,
	}, nil
}
