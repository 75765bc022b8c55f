package tournament

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/strategyci/internal/ciresult"
)

func candAndBreakdown(method ciresult.MethodId, total float64, passed bool) (ciresult.Candidate, ciresult.ScoreBreakdown) {
	return ciresult.Candidate{Method: method},
		ciresult.ScoreBreakdown{Method: method, Total: total, PassedGates: passed}
}

func TestSelectPicksLowestScore(t *testing.T) {
	c1, b1 := candAndBreakdown(ciresult.MethodPercentile, 5.0, true)
	c2, b2 := candAndBreakdown(ciresult.MethodBasic, 2.0, true)
	res, err := Select([]ciresult.Candidate{c1, c2}, []ciresult.ScoreBreakdown{b1, b2})
	require.NoError(t, err)
	assert.Equal(t, ciresult.MethodBasic, res.ChosenMethod)
}

func TestSelectBreaksTieByMethodPreference(t *testing.T) {
	c1, b1 := candAndBreakdown(ciresult.MethodNormal, 3.0, true)
	c2, b2 := candAndBreakdown(ciresult.MethodBCa, 3.0, true)
	res, err := Select([]ciresult.Candidate{c1, c2}, []ciresult.ScoreBreakdown{b1, b2})
	require.NoError(t, err)
	assert.Equal(t, ciresult.MethodBCa, res.ChosenMethod)
	assert.True(t, res.Diagnostics.BCaChosen)
}

func TestSelectSkipsRejectedCandidates(t *testing.T) {
	c1, b1 := candAndBreakdown(ciresult.MethodBCa, 1.0, false)
	c2, b2 := candAndBreakdown(ciresult.MethodPercentile, 5.0, true)
	res, err := Select([]ciresult.Candidate{c1, c2}, []ciresult.ScoreBreakdown{b1, b2})
	require.NoError(t, err)
	assert.Equal(t, ciresult.MethodPercentile, res.ChosenMethod)
}

func TestSelectNoValidCandidate(t *testing.T) {
	c1, b1 := candAndBreakdown(ciresult.MethodPercentile, 5.0, false)
	_, err := Select([]ciresult.Candidate{c1}, []ciresult.ScoreBreakdown{b1})
	assert.ErrorIs(t, err, ciresult.ErrNoValidCandidate)
}

func TestSelectMismatchedLengthsRejected(t *testing.T) {
	c1, _ := candAndBreakdown(ciresult.MethodPercentile, 5.0, true)
	_, err := Select([]ciresult.Candidate{c1}, nil)
	assert.ErrorIs(t, err, ciresult.ErrInvalidArgument)
}

func TestTieWithinEpsilonTreatedEqual(t *testing.T) {
	assert.True(t, tied(100.0, 100.0+50*TieEpsilon))
	assert.False(t, tied(100.0, 101.0))
}
