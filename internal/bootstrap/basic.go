package bootstrap

import (
	"github.com/rs/zerolog"

	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/executor"
	"github.com/sawpanic/strategyci/internal/resample"
	"github.com/sawpanic/strategyci/internal/rngstream"
)

// BasicEngine implements the "pivotal" basic bootstrap: reflects the
// percentiles of the replicate distribution around the point estimate
// (2*theta_hat - quantile) rather than reading them off directly, which
// corrects for skew the plain percentile method ignores.
type BasicEngine struct {
	Resampler resample.Resampler
	Exec      executor.Executor
	Log       *zerolog.Logger
	MinB      int
}

// NewBasicEngine returns a BasicEngine with sensible defaults.
func NewBasicEngine() BasicEngine {
	return BasicEngine{Resampler: resample.IID{}, Exec: executor.SingleThreaded{}, MinB: 1000}
}

func (e BasicEngine) Run(xs []float64, stat func([]float64) float64, cl float64, b int, it ciresult.IntervalType, prov rngstream.Provider) (Result, error) {
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

	qLo := type7QuantileSorted(sorted, pLo)
	qHi := type7QuantileSorted(sorted, pHi)

	lower := 2*pointEst - qHi
	upper := 2*pointEst - qLo

	return Result{
		Mean: pointEst, Lower: lower, Upper: upper, CL: cl, N: len(xs),
		B: b, Skipped: skipped, EffectiveB: effB, BootstrapStats: stats,
	}, nil
}
