// Package factory builds the matched {engine, CRNProvider} pairs the
// rest of the system consumes: given a master seed and a strategy's
// identity (strategy id, pipeline stage, block length, walk-forward
// fold), it derives one deterministic CRN provider and wires up the
// resampler (IID or stationary-block at the requested L) every engine
// in a run shares.
//
// Grounded on TradingBootstrapFactory.h's provider-from-identity
// construction and internal/config/providers.go's
// constructor-from-config shape.
package factory

import (
	"hash/fnv"

	"github.com/sawpanic/strategyci/internal/bootstrap"
	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/executor"
	"github.com/sawpanic/strategyci/internal/resample"
	"github.com/sawpanic/strategyci/internal/rngstream"
	"github.com/sawpanic/strategyci/internal/statistic"
)

// Identity names the (strategy, pipeline stage, fold) tuple a
// provider is derived for; two identical Identities under the same
// master seed always yield bitwise-identical CRN streams.
type Identity struct {
	StrategyID string
	StageTag   string
	BlockLen   int
	Fold       int
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// ProviderFor derives the CRN provider for id under masterSeed.
func ProviderFor(masterSeed uint64, id Identity) rngstream.Provider {
	key := rngstream.NewKey(masterSeed).
		WithTag(hashString(id.StrategyID)).
		WithTag(hashString(id.StageTag)).
		WithTags(int64(id.BlockLen), int64(id.Fold))
	return rngstream.NewProvider(key)
}

// ResamplerFor returns IID when blockLen<=1, otherwise a
// StationaryBlock at the requested mean block length.
func ResamplerFor(blockLen int) resample.Resampler {
	if blockLen <= 1 {
		return resample.IID{}
	}
	return resample.NewStationaryBlock(blockLen)
}

// Bundle is the matched set of engines a tournament run competes
// across, all sharing the same resampler and executor.
type Bundle struct {
	Normal      bootstrap.NormalEngine
	Basic       bootstrap.BasicEngine
	Percentile  bootstrap.PercentileEngine
	BCa         bootstrap.BCaEngine
	MOutOfN     bootstrap.MOutOfNEngine
	PercentileT bootstrap.PercentileTEngine

	Provider rngstream.Provider
}

// BuildBundle assembles a full Bundle for id under masterSeed, sharing
// one resampler (derived from id.BlockLen) and exec across every
// engine.
func BuildBundle(masterSeed uint64, id Identity, exec executor.Executor) Bundle {
	if exec == nil {
		exec = executor.SingleThreaded{}
	}
	rs := ResamplerFor(id.BlockLen)
	prov := ProviderFor(masterSeed, id)

	normal := bootstrap.NewNormalEngine()
	normal.Resampler, normal.Exec = rs, exec
	basic := bootstrap.NewBasicEngine()
	basic.Resampler, basic.Exec = rs, exec
	pct := bootstrap.NewPercentileEngine()
	pct.Resampler, pct.Exec = rs, exec
	bca := bootstrap.NewBCaEngine()
	bca.Resampler, bca.Exec = rs, exec
	mn := bootstrap.NewMOutOfNEngine()
	mn.Resampler, mn.Exec = rs, exec
	pctT := bootstrap.NewPercentileTEngine()
	pctT.Resampler, pctT.Exec = rs, exec

	return Bundle{
		Normal: normal, Basic: basic, Percentile: pct, BCa: bca,
		MOutOfN: mn, PercentileT: pctT, Provider: prov,
	}
}

// RunAll runs every engine in the bundle against xs/stat/cl/b and
// returns one ciresult.Candidate per method that completed without an
// engine-level error (a method can legitimately be skipped, e.g.
// Percentile-t when its inner-loop floor can't be met at the
// requested B).
func (bd Bundle) RunAll(xs []float64, stat func([]float64) float64, cl float64, b int, it ciresult.IntervalType) []ciresult.Candidate {
	skew, _ := statistic.SkewAndExcessKurtosis(xs)
	median := statistic.Median(xs)

	var out []ciresult.Candidate
	tag := func(c ciresult.Candidate) ciresult.Candidate {
		c.Skewness = skew
		c.Median = median
		return c
	}

	if r, err := bd.Normal.Run(xs, stat, cl, b, it, bd.Provider); err == nil {
		out = append(out, tag(r.CandidateBase(ciresult.MethodNormal)))
	}
	if r, err := bd.Basic.Run(xs, stat, cl, b, it, bd.Provider); err == nil {
		out = append(out, tag(r.CandidateBase(ciresult.MethodBasic)))
	}
	if r, err := bd.Percentile.Run(xs, stat, cl, b, it, bd.Provider); err == nil {
		out = append(out, tag(r.CandidateBase(ciresult.MethodPercentile)))
	}
	if r, err := bd.BCa.Run(xs, stat, cl, b, it, bd.Provider); err == nil {
		out = append(out, tag(r.CandidateBase(ciresult.MethodBCa)))
	}
	if r, err := bd.MOutOfN.Run(xs, stat, cl, b, it, bd.Provider); err == nil {
		out = append(out, tag(r.CandidateBase(ciresult.MethodMOutOfN)))
	}
	if r, err := bd.PercentileT.Run(xs, stat, cl, b, it, bd.Provider); err == nil {
		out = append(out, tag(r.CandidateBase(ciresult.MethodPercentileT)))
	}

	return out
}
