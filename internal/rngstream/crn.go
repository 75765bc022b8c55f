// Package rngstream implements the deterministic common-random-number
// (CRN) machinery the bootstrap engines replicate under: a CRNKey
// reduces (master seed, strategy id, stage tag, L, fold) into a single
// uint64 seed, and a Provider built from that key yields one
// independent *rand.Rand per replicate index via MakeEngine(b).
//
// Grounded on TradingBootstrapFactory.h's CRNKey(masterSeed).with_tag(...)
// .with_tags(...) chain: every With* call must perturb the resulting
// stream, and two providers built from identical tag chains must be
// bitwise identical.
package rngstream

import (
	"math/rand/v2"
)

// Key is an immutable, chainable seed reduction. The zero value is
// invalid; build one with NewKey.
type Key struct {
	seed uint64
}

// NewKey seeds a fresh CRNKey from a master seed.
func NewKey(masterSeed uint64) Key {
	return Key{seed: mix(masterSeed, 0x9E3779B97F4A7C15)}
}

// WithTag folds a single uint64 tag into the key, returning a new key.
// Distinct tags are guaranteed (by the mixing function's avalanche
// property) to diverge the resulting stream.
func (k Key) WithTag(tag uint64) Key {
	return Key{seed: mix(k.seed, tag)}
}

// WithTags folds a sequence of tags into the key in order.
func (k Key) WithTags(tags ...int64) Key {
	out := k
	for _, t := range tags {
		out = out.WithTag(uint64(t))
	}
	return out
}

// Seed returns the key's reduced uint64 seed, primarily for tests that
// assert on determinism/divergence directly.
func (k Key) Seed() uint64 { return k.seed }

// mix combines two uint64s through a SplitMix64-style avalanche step,
// matching the "any tag change perturbs the stream within O(1) draws"
// invariant the core spec requires of CRNKey. It is a pure function of
// its two inputs: equal (a,b) always mix to the same output.
func mix(a, b uint64) uint64 {
	z := (a + 0x9E3779B97F4A7C15) ^ (b * 0xBF58476D1CE4E5B9)
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}

// Provider builds deterministic, independent engines per non-negative
// replicate index from a fixed Key. Two providers built from equal
// keys yield, for every b, bitwise-identical engines.
type Provider struct {
	key Key
}

// NewProvider returns a Provider bound to key.
func NewProvider(key Key) Provider { return Provider{key: key} }

// MakeEngine returns the deterministic *rand.Rand for replicate index
// b. The replicate index is folded into the key's seed exactly like
// any other tag, so MakeEngine(b) for distinct b never collides.
func (p Provider) MakeEngine(b int) *rand.Rand {
	s := mix(p.key.seed, uint64(b))
	// Fold the seed into both halves of the PCG state so a single
	// uint64 of entropy still produces a well-distributed 128-bit seed.
	return rand.New(rand.NewPCG(s, mix(s, 0xD6E8FEB86659FD93)))
}

// Nested returns a new Provider whose key is this provider's key with
// tag folded in, used by the nested (Percentile-t) bootstrap to give
// each outer replicate's inner loop its own independent stream while
// remaining a deterministic function of the outer replicate index.
func (p Provider) Nested(tag uint64) Provider {
	return Provider{key: p.key.WithTag(tag)}
}

// DerivedSeeds draws n uint64 values from rng, intended for seeding
// per-outer-replicate engines from a caller-supplied RNG the way
// PercentileTBootstrap.h does before fanning out its outer loop.
func DerivedSeeds(rng *rand.Rand, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = rng.Uint64()
	}
	return out
}

// EngineFromSeed builds a standalone deterministic engine from a raw
// uint64 seed, folded into both halves of the PCG state the way
// MakeEngine does. No engine in this module calls it; Percentile-t
// derives its inner streams from Provider.Nested.
func EngineFromSeed(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, mix(seed, 0xD6E8FEB86659FD93)))
}
