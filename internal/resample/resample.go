// Package resample implements the two resampling policies the
// bootstrap engines are parameterized over: IID (draw n with
// replacement) and StationaryBlock (geometric block length, circular
// wrap), each with its matching jackknife used by BCa's acceleration
// estimate.
//
// Grounded on BiasCorrectedBootstrap.h's IIDResampler and
// StationaryBlockResampler templates.
package resample

import (
	"errors"
	"math"
	"math/rand/v2"
)

// ErrInvalidArgument is returned by Jackknife calls whose sample is too
// small for the requested policy.
var ErrInvalidArgument = errors.New("resample: invalid argument")

// Resampler is the capability set every engine is parameterized over:
// draw a resample of size m, compute jackknife pseudo-values under
// this policy, and report the mean block length (1 for IID).
type Resampler interface {
	Resample(x []float64, m int, rng *rand.Rand) []float64
	Jackknife(x []float64, stat func([]float64) float64) ([]float64, error)
	L() int
}

// IID draws each element of the resample uniformly at random, with
// replacement, and jackknifes via the classic leave-one-out estimator.
type IID struct{}

func (IID) L() int { return 1 }

func (IID) Resample(x []float64, m int, rng *rand.Rand) []float64 {
	n := len(x)
	out := make([]float64, m)
	for i := 0; i < m; i++ {
		out[i] = x[rng.IntN(n)]
	}
	return out
}

// Jackknife produces exactly len(x) leave-one-out pseudo-values.
// Requires len(x) >= 2.
func (IID) Jackknife(x []float64, stat func([]float64) float64) ([]float64, error) {
	n := len(x)
	if n < 2 {
		return nil, ErrInvalidArgument
	}
	out := make([]float64, n)
	scratch := make([]float64, n-1)
	for i := 0; i < n; i++ {
		k := 0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			scratch[k] = x[j]
			k++
		}
		out[i] = stat(scratch)
	}
	return out, nil
}

// StationaryBlock draws block lengths from a Geometric(1/L) + 1
// distribution and wraps the source circularly, implementing the
// delete-block (Kunsch) jackknife for its acceleration estimate.
type StationaryBlock struct {
	meanBlockLen int
}

// NewStationaryBlock clamps the requested mean block length to at
// least 2, matching the core's "L is clamped to max(2, requested)"
// contract.
func NewStationaryBlock(l int) StationaryBlock {
	if l < 2 {
		l = 2
	}
	return StationaryBlock{meanBlockLen: l}
}

func (s StationaryBlock) L() int { return s.meanBlockLen }

// geometricDraw draws a block length from Geometric(1/L), 1-based
// (i.e. the minimum draw is 1), matching
// 1 + geometric_distribution<size_t>(1.0/L)(engine) from the source.
func geometricDraw(rng *rand.Rand, meanL int) int {
	p := 1.0 / float64(meanL)
	// Inverse-CDF sampling of a Geometric(p) on {0,1,2,...}.
	u := rng.Float64()
	if u >= 1 {
		u = math.Nextafter(1, 0)
	}
	draw := int(math.Log1p(-u) / math.Log1p(-p))
	if draw < 0 {
		draw = 0
	}
	return 1 + draw
}

func (s StationaryBlock) Resample(x []float64, m int, rng *rand.Rand) []float64 {
	n := len(x)
	out := make([]float64, 0, m)
	for len(out) < m {
		idx := rng.IntN(n)
		blockLen := geometricDraw(rng, s.meanBlockLen)
		remaining := m - len(out)
		k := blockLen
		if k > remaining {
			k = remaining
		}
		if k > n {
			k = n
		}
		room := n - idx
		if k <= room {
			out = append(out, x[idx:idx+k]...)
		} else {
			out = append(out, x[idx:n]...)
			out = append(out, x[:k-room]...)
		}
	}
	return out
}

// Jackknife implements the delete-block (Kunsch) jackknife: with
// minKeep=2, L_eff = min(L, n-minKeep), keep length n-L_eff, and
// numBlocks = n/L_eff non-overlapping deleted blocks, each evaluated
// on its circularly-retained complement.
func (s StationaryBlock) Jackknife(x []float64, stat func([]float64) float64) ([]float64, error) {
	n := len(x)
	const minKeep = 2
	if n < minKeep+1 {
		return nil, ErrInvalidArgument
	}
	lEff := s.meanBlockLen
	if n-minKeep < lEff {
		lEff = n - minKeep
	}
	if n < lEff+minKeep {
		return nil, ErrInvalidArgument
	}
	keep := n - lEff
	numBlocks := n / lEff

	out := make([]float64, numBlocks)
	y := make([]float64, keep)
	for b := 0; b < numBlocks; b++ {
		start := b * lEff
		startKeep := (start + lEff) % n
		tail := keep
		if n-startKeep < tail {
			tail = n - startKeep
		}
		copy(y[:tail], x[startKeep:startKeep+tail])
		if head := keep - tail; head > 0 {
			copy(y[tail:], x[:head])
		}
		out[b] = stat(y)
	}
	return out, nil
}
