// Package tournament selects the winning confidence interval from a
// set of scored candidates: rank by total score, break ties by method
// preference (BCa strongest) within a relative epsilon, and record
// the diagnostics the caller needs to explain the choice (why BCa was
// or wasn't picked, how many candidates survived gating).
//
// Grounded on AutoBootstrapScoring.h's ImprovedTournamentSelector and
// the table-driven assertion style of internal/premove/score_test.go.
package tournament

import (
	"sort"

	"github.com/sawpanic/strategyci/internal/ciresult"
)

// TieEpsilon is the relative tolerance within which two candidates'
// total scores are treated as tied, at which point method preference
// (ciresult.MethodId.Preference) breaks the tie.
const TieEpsilon = 1e-10

// Select ranks cands (with their score breakdowns, same order and
// length) and returns the winner plus full selection diagnostics. An
// empty candidate set, or one whose length differs from breakdowns,
// returns ciresult.ErrInvalidArgument; a set in which every candidate
// fails its gates returns ciresult.ErrNoValidCandidate.
func Select(cands []ciresult.Candidate, breakdowns []ciresult.ScoreBreakdown) (ciresult.AutoCIResult, error) {
	if len(cands) == 0 || len(cands) != len(breakdowns) {
		return ciresult.AutoCIResult{}, ciresult.ErrInvalidArgument
	}

	scored := make([]ciresult.ScoredCandidate, len(cands))
	for i, c := range cands {
		scored[i] = ciresult.ScoredCandidate{Candidate: c, ID: i, TotalScore: breakdowns[i].Total}
	}

	eligible := make([]int, 0, len(scored))
	for i, bd := range breakdowns {
		if bd.PassedGates {
			eligible = append(eligible, i)
		}
	}

	diag := ciresult.SelectionDiagnostics{
		CandidateCount: len(cands),
		Breakdowns:     breakdowns,
		TieEpsilon:     TieEpsilon,
	}
	for _, bd := range breakdowns {
		if bd.Method == ciresult.MethodBCa {
			diag.BCaPresent = true
			if !bd.PassedGates {
				diag.BCaRejectedNonFinite = diag.BCaRejectedNonFinite || bd.RejectMask.Has(ciresult.RejectBcaParamsNonFinite)
				diag.BCaRejectedInstability = diag.BCaRejectedInstability || bd.RejectMask.Has(ciresult.RejectBcaZ0Exceeded) || bd.RejectMask.Has(ciresult.RejectBcaAccelExceeded)
				diag.BCaRejectedDomain = diag.BCaRejectedDomain || bd.RejectMask.Has(ciresult.RejectViolatesSupport)
			}
		}
	}

	if len(eligible) == 0 {
		return ciresult.AutoCIResult{Candidates: scored, Diagnostics: diag}, ciresult.ErrNoValidCandidate
	}

	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		sa, sb := scored[a].TotalScore, scored[b].TotalScore
		if tied(sa, sb) {
			return scored[a].Method.Preference() < scored[b].Method.Preference()
		}
		return sa < sb
	})

	winner := eligible[0]
	scored[winner].Chosen = true
	for rank, idx := range eligible {
		scored[idx].Rank = rank + 1
	}

	diag.ChosenMethod = scored[winner].Method
	diag.ChosenScore = scored[winner].TotalScore
	diag.ChosenStabilityPenalty = breakdowns[winner].RawStability
	diag.ChosenLengthPenalty = breakdowns[winner].RawLength
	diag.BCaChosen = scored[winner].Method == ciresult.MethodBCa

	return ciresult.AutoCIResult{
		ChosenMethod: scored[winner].Method,
		Chosen:       scored[winner],
		Candidates:   scored,
		Diagnostics:  diag,
	}, nil
}

// tied reports whether |a-b| <= TieEpsilon*(1+max(|a|,|b|)), so tie
// detection scales with the scores' magnitude in the thousands and
// stays absolute near 0.
func tied(a, b float64) bool {
	return abs(a-b) <= TieEpsilon*(1+max(abs(a), abs(b)))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
