package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankANOVA(t *testing.T) {
	X := [][]float64{
		{1, 10, 5},
		{2, 12, 5},
		{3, 11, 5},
		{4, 11, 5},
		{5, 13, 5},
		{6, 10, 5},
	}
	y := []int{0, 0, 0, 1, 1, 1}

	scores, err := RankANOVA(X, y, []string{"strong", "weak", "constant"})
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, "strong", scores[0].Feature)
	assert.InDelta(t, 13.5, scores[0].F, 1e-12)
	assert.Greater(t, scores[0].PValue, 0.0)
	assert.Less(t, scores[0].PValue, 0.05)

	assert.Equal(t, "weak", scores[1].Feature)
	assert.InDelta(t, 0.1, scores[1].F, 1e-12)

	assert.Equal(t, "constant", scores[2].Feature)
	assert.Equal(t, 0.0, scores[2].F)
	assert.Equal(t, 1.0, scores[2].PValue)
}

func TestRankANOVAPerfectSeparation(t *testing.T) {
	X := [][]float64{{0}, {0}, {1}, {1}}
	y := []int{0, 0, 1, 1}

	scores, err := RankANOVA(X, y, []string{"flag"})
	require.NoError(t, err)
	assert.True(t, math.IsInf(scores[0].F, 1))
	assert.Equal(t, 0.0, scores[0].PValue)
}

func TestRankANOVATiesOrderedByName(t *testing.T) {
	X := [][]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}}
	y := []int{0, 1, 0, 1}

	scores, err := RankANOVA(X, y, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", scores[0].Feature)
	assert.Equal(t, "b", scores[1].Feature)
}

func TestRankANOVAShapeErrors(t *testing.T) {
	_, err := RankANOVA([][]float64{{1}}, []int{0, 1}, []string{"a"})
	assert.Error(t, err)

	_, err = RankANOVA([][]float64{{1, 2}}, []int{0}, []string{"a"})
	assert.Error(t, err)

	_, err = RankANOVA(nil, nil, nil)
	assert.Error(t, err)
}
