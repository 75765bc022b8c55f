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

// BCaEngine implements the bias-corrected and accelerated bootstrap
// (Efron & Tibshirani ch. 14): it adjusts the percentile method's
// quantile targets by a bias-correction z0 (how far the bootstrap
// median sits from the point estimate) and an acceleration a (the
// jackknife-estimated rate of change of the standard error with the
// true parameter). It is the tournament's most strongly preferred
// method (MethodBCa) when its gates pass.
type BCaEngine struct {
	Resampler resample.Resampler
	Exec      executor.Executor
	Log       *zerolog.Logger
	MinB      int

	// MaxAbsZ0 and MaxAbsAccel are not read by Run or by any other
	// package; the |z0| and |a| hard gates that reject a BCa candidate
	// are scoring.Gates.MaxAbsZ0 and scoring.Gates.MaxAbsAccel.
	MaxAbsZ0    float64
	MaxAbsAccel float64
}

// NewBCaEngine returns a BCaEngine with sensible defaults.
func NewBCaEngine() BCaEngine {
	return BCaEngine{Resampler: resample.IID{}, Exec: executor.SingleThreaded{}, MinB: 2000}
}

func (e BCaEngine) Run(xs []float64, stat func([]float64) float64, cl float64, b int, it ciresult.IntervalType, prov rngstream.Provider) (Result, error) {
	minB := e.MinB
	if minB == 0 {
		minB = 2000
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
	if sorted[0] == sorted[effB-1] {
		v := sorted[0]
		return Result{
			Mean: v, Lower: v, Upper: v, CL: cl, N: len(xs),
			B: b, Skipped: skipped, EffectiveB: effB, BootstrapStats: stats,
		}, nil
	}

	below := 0
	for _, v := range stats {
		if v < pointEst {
			below++
		}
	}
	propBelow := math.Min(math.Max(float64(below)/float64(effB), 1e-10), 1-1e-10)
	z0 := normaldist.Quantile(propBelow)

	jk, err := rs.Jackknife(xs, stat)
	if err != nil {
		return Result{}, err
	}
	accel := acceleration(jk)

	if math.IsNaN(z0) || math.IsInf(z0, 0) || math.IsNaN(accel) || math.IsInf(accel, 0) {
		return Result{
			Mean: pointEst, CL: cl, N: len(xs), B: b, Skipped: skipped,
			EffectiveB: effB, BootstrapStats: stats, Z0: z0, Accel: accel,
			Lower: math.NaN(), Upper: math.NaN(),
		}, nil
	}

	pLo, pHi := tailProbabilities(cl, it)
	zLo, zHi := normaldist.Quantile(pLo), normaldist.Quantile(pHi)

	alphaLo := clampUnit(bcaAdjustedAlpha(z0, accel, zLo))
	alphaHi := clampUnit(bcaAdjustedAlpha(z0, accel, zHi))
	if alphaLo > alphaHi {
		alphaLo, alphaHi = alphaHi, alphaLo
	}

	lower := sorted[unbiasedIndex(alphaLo, len(sorted))]
	upper := sorted[unbiasedIndex(alphaHi, len(sorted))]

	return Result{
		Mean: pointEst, Lower: lower, Upper: upper, CL: cl, N: len(xs),
		B: b, Skipped: skipped, EffectiveB: effB, BootstrapStats: stats,
		Z0: z0, Accel: accel,
	}, nil
}

// bcaAdjustedAlpha returns the bias-and-acceleration-adjusted percentile
// Phi(z0 + (z0+z)/(1-a*(z0+z))) targeted by a raw normal quantile z. When z0
// is non-finite or the denominator 1-a*(z0+z) is within 1e-12 of zero, the
// accelerated term is dropped in favor of the plain bias correction
// Phi(z0+z).
func bcaAdjustedAlpha(z0, accel, z float64) float64 {
	den := 1 - accel*(z0+z)
	if math.IsNaN(z0) || math.IsInf(z0, 0) || math.Abs(den) < 1e-12 {
		return normaldist.CDF(z0 + z)
	}
	return normaldist.CDF(z0 + (z0+z)/den)
}

// unbiasedIndex returns Efron & Tibshirani's unbiased order-statistic index
// (eq. 14.15) for a target percentile p over b sorted replicates:
// floor(p*(b+1))-1, clamped to [0,b-1].
func unbiasedIndex(p float64, b int) int {
	idx := int(math.Floor(p*float64(b+1))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > b-1 {
		idx = b - 1
	}
	return idx
}

// acceleration returns the standard jackknife acceleration estimate:
// sum((mean(jk)-jk_i)^3) / (6*sum((mean(jk)-jk_i)^2)^1.5), or 0 when the
// squared-deviation sum is below 1e-100.
func acceleration(jk []float64) float64 {
	n := len(jk)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, v := range jk {
		mean += v
	}
	mean /= float64(n)

	var num, den float64
	for _, v := range jk {
		d := mean - v
		num += d * d * d
		den += d * d
	}
	if den < 1e-100 {
		return 0
	}
	return num / (6 * math.Pow(den, 1.5))
}
