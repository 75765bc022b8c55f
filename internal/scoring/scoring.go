// Package scoring turns a candidate's raw penalty components into a
// single weighted score and a pass/fail gate decision, per two
// distinct weight profiles: one for returns-based statistics (mean,
// geometric mean) and one for ratio-class statistics (profit factor),
// which the original implementation weights differently since a ratio
// statistic's center-shift and skew behave on a different natural
// scale than a return's.
//
// Grounded on internal/premove/score.go's weighted-component config
// pattern and AutoBootstrapScoring.h / AutoBootstrapConfiguration.h's
// profile split and hard-gate thresholds.
package scoring

import (
	"math"

	"github.com/sawpanic/strategyci/internal/ciresult"
	"github.com/sawpanic/strategyci/internal/penalty"
)

// StatisticClass selects which weight profile a candidate set is
// scored under.
type StatisticClass int

const (
	ClassReturnsBased StatisticClass = iota
	ClassRatio
)

// Weights holds the per-component multipliers a scoring profile
// applies to each normalized penalty before summing.
type Weights struct {
	Ordering    float64
	Length      float64
	Stability   float64
	Skew        float64
	CenterShift float64
}

// DefaultReturnsWeights is the returns-based-statistic profile:
// ordering dominates (any crossed interval is essentially
// disqualifying), length and stability are next, skew and center-shift
// are lighter tie-breakers.
func DefaultReturnsWeights() Weights {
	return Weights{Ordering: 100, Length: 10, Stability: 8, Skew: 3, CenterShift: 2}
}

// DefaultRatioWeights is the ratio-class-statistic profile: stability
// and center-shift are weighted more heavily than under the
// returns-based profile, since a ratio statistic's sampling
// distribution is more prone to instability near its support boundary.
func DefaultRatioWeights() Weights {
	return Weights{Ordering: 100, Length: 8, Stability: 12, Skew: 2, CenterShift: 5}
}

// Gates holds the hard pass/fail thresholds a candidate must clear
// before it is eligible for scoring at all, independent of its
// weighted score.
type Gates struct {
	MinEffectiveB  int
	MaxAbsZ0       float64
	MaxAbsAccel    float64
	MaxInnerFailRt float64
}

// DefaultGates matches the reference implementation's hard-gate
// thresholds: an effective-B floor plus BCa's |z0|/|a| limits.
func DefaultGates() Gates {
	return Gates{MinEffectiveB: 500, MaxAbsZ0: 0.6, MaxAbsAccel: 0.25, MaxInnerFailRt: 0.2}
}

// Profile bundles a statistic class's weights with the gates applied
// uniformly across classes.
type Profile struct {
	Class   StatisticClass
	Weights Weights
	Gates   Gates
}

// DefaultProfile returns the standard profile for class.
func DefaultProfile(class StatisticClass) Profile {
	w := DefaultReturnsWeights()
	if class == ClassRatio {
		w = DefaultRatioWeights()
	}
	return Profile{Class: class, Weights: w, Gates: DefaultGates()}
}

// Score evaluates every candidate in cands against profile, returning
// one ScoreBreakdown per candidate in the same order. widest is the
// widest interval in the set (see penalty.Widest); violatesSupport[i]
// reports whether cands[i]'s lower bound breaches a hard statistic
// support floor.
func Score(cands []ciresult.Candidate, profile Profile, widest float64, violatesSupport []bool) []ciresult.ScoreBreakdown {
	out := make([]ciresult.ScoreBreakdown, len(cands))
	for i, c := range cands {
		out[i] = scoreOne(i, c, profile, widest, violatesSupport[i])
	}
	return out
}

func scoreOne(id int, c ciresult.Candidate, profile Profile, widest float64, violatesSupport bool) ciresult.ScoreBreakdown {
	bd := ciresult.ScoreBreakdown{CandidateID: id, Method: c.Method}

	bd.RawOrdering = penalty.Ordering(c)
	bd.RawLength = penalty.Length(c, widest)
	bd.RawStability = penalty.Stability(c)
	bd.RawSkew = penalty.Skew(c)
	bd.RawCenterShift = penalty.CenterShift(c)
	bd.RawDomain = penalty.Domain(c, violatesSupport)
	bd.ViolatesSupport = violatesSupport

	var mask ciresult.Reject
	if violatesSupport {
		mask |= ciresult.RejectViolatesSupport
	}
	if c.EffectiveB < profile.Gates.MinEffectiveB {
		mask |= ciresult.RejectEffectiveBLow
	}
	if c.Method == ciresult.MethodBCa {
		if math.IsNaN(c.Z0) || math.IsInf(c.Z0, 0) || math.IsNaN(c.Accel) || math.IsInf(c.Accel, 0) {
			mask |= ciresult.RejectBcaParamsNonFinite
		} else {
			if math.Abs(c.Z0) > profile.Gates.MaxAbsZ0 {
				mask |= ciresult.RejectBcaZ0Exceeded
			}
			if math.Abs(c.Accel) > profile.Gates.MaxAbsAccel {
				mask |= ciresult.RejectBcaAccelExceeded
			}
		}
	}
	if c.Method == ciresult.MethodPercentileT {
		if c.InnerFailureRate > profile.Gates.MaxInnerFailRt {
			mask |= ciresult.RejectPctTInnerFailures
		}
		if c.EffectiveB < profile.Gates.MinEffectiveB {
			mask |= ciresult.RejectPctTLowEffectiveB
		}
	}

	bd.NormOrdering = normalize(bd.RawOrdering)
	bd.NormLength = normalize(bd.RawLength)
	bd.NormStability = normalize(bd.RawStability)
	bd.NormSkew = normalize(bd.RawSkew)
	bd.NormCenterShift = normalize(bd.RawCenterShift)

	w := profile.Weights
	bd.WeightedOrdering = w.Ordering * bd.NormOrdering
	bd.WeightedLength = w.Length * bd.NormLength
	bd.WeightedStability = w.Stability * bd.NormStability
	bd.WeightedSkew = w.Skew * bd.NormSkew
	bd.WeightedCenterShift = w.CenterShift * bd.NormCenterShift
	bd.DomainContribution = bd.RawDomain

	total := bd.WeightedOrdering + bd.WeightedLength + bd.WeightedStability +
		bd.WeightedSkew + bd.WeightedCenterShift + bd.DomainContribution
	if math.IsNaN(total) {
		total = math.Inf(1)
		mask |= ciresult.RejectScoreNonFinite
	}
	bd.Total = total
	bd.RejectMask = mask
	bd.PassedGates = mask == ciresult.RejectNone && !math.IsInf(total, 1)
	if !bd.PassedGates {
		bd.Reason = mask.String()
		if bd.Reason == "none" {
			bd.Reason = "SCORE_NON_FINITE"
		}
	}
	return bd
}

// normalize caps a raw penalty at a large-but-finite ceiling so an
// infinite raw value (a hard failure) still participates in a total
// ordering among equally-disqualified candidates, rather than turning
// every disqualified candidate's score into indistinguishable +Inf.
func normalize(raw float64) float64 {
	if math.IsInf(raw, 1) {
		return 1e9
	}
	if math.IsNaN(raw) {
		return 1e9
	}
	return raw
}
