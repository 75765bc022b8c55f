package bootstrap

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/executor"
	"github.com/sawpanic/strategyci/internal/resample"
	"github.com/sawpanic/strategyci/internal/rngstream"
)

// MOutOfNEngine implements Politis-Romano subsampling: it draws
// replicates of size m = round(n^Gamma), m < n, rather than n, which
// remains consistent under heavy-tailed or otherwise irregular
// statistics (e.g. near a support boundary) where the ordinary
// bootstrap's n-out-of-n resampling is known to fail. The percentile
// interval of the m-sized replicates is then rescaled by sqrt(m/n) to
// the n-sample scale.
type MOutOfNEngine struct {
	Resampler resample.Resampler
	Exec      executor.Executor
	Log       *zerolog.Logger
	MinB      int

	// Gamma sets m = round(n^Gamma); defaults to 0.75 when zero.
	Gamma float64
	// M overrides the subsample size directly when > 0, bypassing Gamma.
	M int
}

// NewMOutOfNEngine returns an MOutOfNEngine with sensible defaults.
func NewMOutOfNEngine() MOutOfNEngine {
	return MOutOfNEngine{Resampler: resample.IID{}, Exec: executor.SingleThreaded{}, MinB: 1000, Gamma: 0.75}
}

// MRatio returns m/n for a sample of size n under gamma, matching
// mn_ratio_from_n's "what fraction of n does the subsample use" contract.
func MRatio(n int, gamma float64) float64 {
	m := subsampleSize(n, gamma)
	return float64(m) / float64(n)
}

func subsampleSize(n int, gamma float64) int {
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.75
	}
	m := int(math.Round(math.Pow(float64(n), gamma)))
	if m < 2 {
		m = 2
	}
	if m >= n {
		m = n - 1
		if m < 2 {
			m = 2
		}
	}
	return m
}

func (e MOutOfNEngine) Run(xs []float64, stat func([]float64) float64, cl float64, b int, it ciresult.IntervalType, prov rngstream.Provider) (Result, error) {
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

	n := len(xs)
	m := e.M
	if m <= 0 {
		m = subsampleSize(n, e.Gamma)
	}

	stats, skipped := replicatePass(xs, m, b, stat, rs, prov, exec, e.Log)
	effB := len(stats)
	if effB < 2 {
		return Result{}, ErrLogicError
	}

	pointEst := stat(xs)
	sorted := sortedCopy(stats)
	pLo, pHi := tailProbabilities(cl, it)

	qLo := type7QuantileSorted(sorted, pLo)
	qHi := type7QuantileSorted(sorted, pHi)

	scale := math.Sqrt(float64(m) / float64(n))
	lower := pointEst + (qLo-pointEst)*scale
	upper := pointEst + (qHi-pointEst)*scale

	return Result{
		Mean: pointEst, Lower: lower, Upper: upper, CL: cl, N: n,
		B: b, Skipped: skipped, EffectiveB: effB, BootstrapStats: stats,
		MOuter: m,
	}, nil
}
