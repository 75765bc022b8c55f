package bootstrap

import (
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/executor"
	"github.com/sawpanic/strategyci/internal/resample"
	"github.com/sawpanic/strategyci/internal/rngstream"
)

// PercentileTEngine implements the studentized (percentile-t)
// bootstrap: for each of B_outer outer replicates it draws a nested
// inner bootstrap of B_inner replicates to estimate that replicate's
// own standard error, forms a studentized statistic t* = (theta* -
// theta_hat)/se*, and reads the confidence bounds off the empirical
// distribution of t* rather than of theta* directly. This corrects for
// both skew and scale instability that the plain percentile method
// cannot, at the cost of a full inner bootstrap per outer replicate.
type PercentileTEngine struct {
	Resampler resample.Resampler
	Exec      executor.Executor
	Log       *zerolog.Logger

	MinBOuter int
	MinBInner int
	BInner    int
}

// NewPercentileTEngine returns a PercentileTEngine with sensible
// defaults: 2000 outer replicates' worth of minimum, 200 inner
// replicates each.
func NewPercentileTEngine() PercentileTEngine {
	return PercentileTEngine{
		Resampler: resample.IID{}, Exec: executor.SingleThreaded{},
		MinBOuter: 2000, MinBInner: 100, BInner: 200,
	}
}

// Inner-loop adaptive early-stop tuning: the inner bootstrap runs at least
// minInnerReplicates replicates, then checks every checkInnerEvery replicates
// whether the running SE estimate has stabilized to within innerRelEps of
// its value at the previous check, stopping as soon as it has.
const (
	minInnerReplicates = 100
	checkInnerEvery    = 16
	innerRelEps        = 0.015
)

func (e PercentileTEngine) Run(xs []float64, stat func([]float64) float64, cl float64, bOuter int, it ciresult.IntervalType, prov rngstream.Provider) (Result, error) {
	minBOuter := e.MinBOuter
	if minBOuter == 0 {
		minBOuter = 2000
	}
	if err := validateCommon(len(xs), cl, bOuter, minBOuter); err != nil {
		return Result{}, err
	}
	bInner := e.BInner
	if bInner == 0 {
		bInner = 200
	}
	minBInner := e.MinBInner
	if minBInner == 0 {
		minBInner = 100
	}
	if bInner < minBInner {
		return Result{}, ErrInvalidArgument
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
	pointEst := stat(xs)

	tStats := make([]float64, bOuter)
	thetaStats := make([]float64, bOuter)
	for i := range tStats {
		tStats[i] = math.NaN()
		thetaStats[i] = math.NaN()
	}
	var skippedOuter atomic.Int64
	var skippedInnerTotal atomic.Int64
	var innerAttemptedTotal atomic.Int64

	exec.ParallelForChunked(bOuter, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			outerEng := prov.MakeEngine(i)
			outerSample := rs.Resample(xs, n, outerEng)
			outerStat := stat(outerSample)
			if math.IsNaN(outerStat) || math.IsInf(outerStat, 0) {
				skippedOuter.Add(1)
				continue
			}

			innerProv := prov.Nested(uint64(i) + 1)
			innerEng := innerProv.MakeEngine(0)

			// Welford on-line accumulator, adaptive early-stop: the inner
			// loop runs at least minInnerReplicates replicates, then every
			// checkInnerEvery replicates checks whether the running SE has
			// stabilized to within innerRelEps of its previous checkpoint.
			var mean, m2 float64
			var effInner int
			lastSE := math.Inf(1)
			innerAttempted := 0

			for j := 0; j < bInner; j++ {
				innerAttempted++
				innerSample := rs.Resample(outerSample, n, innerEng)
				v := stat(innerSample)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				effInner++
				delta := v - mean
				mean += delta / float64(effInner)
				m2 += delta * (v - mean)

				if effInner >= minInnerReplicates && effInner%checkInnerEvery == 0 {
					seNow := math.Sqrt(math.Max(0, m2/float64(effInner)))
					if !math.IsInf(seNow, 0) && !math.IsNaN(seNow) &&
						math.Abs(seNow-lastSE) <= innerRelEps*math.Max(seNow, 1e-300) {
						break
					}
					lastSE = seNow
				}
			}
			innerAttemptedTotal.Add(int64(innerAttempted))
			skippedInnerTotal.Add(int64(innerAttempted - effInner))

			if effInner < minInnerReplicates {
				skippedOuter.Add(1)
				continue
			}
			innerSE := math.Sqrt(math.Max(0, m2/float64(effInner)))
			if innerSE <= 0 || math.IsNaN(innerSE) || math.IsInf(innerSE, 0) {
				skippedOuter.Add(1)
				continue
			}
			tStats[i] = (outerStat - pointEst) / innerSE
			thetaStats[i] = outerStat
		}
	})

	finite := make([]float64, 0, bOuter)
	thetaFinite := make([]float64, 0, bOuter)
	for i, v := range tStats {
		if !math.IsNaN(v) && !math.IsNaN(thetaStats[i]) {
			finite = append(finite, v)
			thetaFinite = append(thetaFinite, thetaStats[i])
		}
	}
	effB := len(finite)
	if effB < 16 {
		return Result{}, ErrLogicError
	}

	// SE_hat = SD(theta*) across effective outer replicates, not the
	// jackknife SE of the point estimate.
	seHat := stdDev(thetaFinite)

	sorted := sortedCopy(finite)
	pLo, pHi := tailProbabilities(cl, it)
	tLo := type7QuantileSorted(sorted, pLo)
	tHi := type7QuantileSorted(sorted, pHi)

	lower := pointEst - tHi*seHat
	upper := pointEst - tLo*seHat

	return Result{
		Mean: pointEst, Lower: lower, Upper: upper, CL: cl, N: n,
		BOuter: bOuter, BInner: bInner, Skipped: int(skippedOuter.Load()),
		SkippedOuter: int(skippedOuter.Load()), SkippedInnerTotal: int(skippedInnerTotal.Load()),
		InnerAttemptedTotal: int(innerAttemptedTotal.Load()), EffectiveB: effB,
		TStats: finite, SEHat: seHat,
	}, nil
}
