package resample

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/strategyci/internal/statistic"
)

func TestIIDResampleLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := []float64{1, 2, 3, 4, 5}
	out := IID{}.Resample(x, 10, rng)
	assert.Len(t, out, 10)
	for _, v := range out {
		assert.Contains(t, x, v)
	}
}

func TestIIDJackknifeCount(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	jk, err := IID{}.Jackknife(x, statistic.Mean)
	require.NoError(t, err)
	assert.Len(t, jk, 4)
}

func TestIIDJackknifeRequiresTwo(t *testing.T) {
	_, err := IID{}.Jackknife([]float64{1}, statistic.Mean)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStationaryBlockClampsL(t *testing.T) {
	assert.Equal(t, 2, NewStationaryBlock(0).L())
	assert.Equal(t, 2, NewStationaryBlock(1).L())
	assert.Equal(t, 5, NewStationaryBlock(5).L())
}

func TestStationaryBlockResampleLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 9))
	x := make([]float64, 20)
	for i := range x {
		x[i] = float64(i)
	}
	sb := NewStationaryBlock(3)
	out := sb.Resample(x, 37, rng)
	assert.Len(t, out, 37)
}

func TestStationaryBlockJackknifeRejectsSmallN(t *testing.T) {
	sb := NewStationaryBlock(3)
	_, err := sb.Jackknife([]float64{1, 2}, statistic.Mean)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStationaryBlockJackknifeBlockCount(t *testing.T) {
	sb := NewStationaryBlock(3)
	x := make([]float64, 12)
	for i := range x {
		x[i] = float64(i)
	}
	jk, err := sb.Jackknife(x, statistic.Mean)
	require.NoError(t, err)
	// L_eff = min(3, 12-2) = 3, numBlocks = 12/3 = 4
	assert.Len(t, jk, 4)
}
