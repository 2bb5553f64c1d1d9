package preprocessing

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedianImputer(t *testing.T) {
	nan := math.NaN()
	X := [][]float64{
		{1, nan},
		{nan, 10},
		{3, 20},
		{4, 40},
	}

	imp := NewMedianImputer()
	out, err := imp.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 20}, imp.Statistics)
	assert.Equal(t, [][]float64{{1, 20}, {3, 10}, {3, 20}, {4, 40}}, out)
	assert.True(t, math.IsNaN(X[0][1]), "input must not be modified")
}

func TestMedianImputerAllMissing(t *testing.T) {
	nan := math.NaN()
	err := NewMedianImputer().Fit([][]float64{{1, nan}, {2, nan}})
	assert.True(t, errors.Is(err, ErrAllMissing))
}

func TestMedianImputerNotFitted(t *testing.T) {
	_, err := NewMedianImputer().Transform([][]float64{{1}})
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestMedianImputerFeatureMismatch(t *testing.T) {
	imp := NewMedianImputer()
	require.NoError(t, imp.Fit([][]float64{{1, 2}}))
	_, err := imp.Transform([][]float64{{1}})
	assert.True(t, errors.Is(err, ErrFeatureMismatch))
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{
		{1, 5},
		{2, 5},
		{3, 5},
	}

	s := NewStandardScaler()
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	std := math.Sqrt(2.0 / 3.0)
	assert.Equal(t, []float64{2, 5}, s.Mean)
	assert.InDelta(t, std, s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1])

	assert.InDelta(t, -1/std, out[0][0], 1e-12)
	assert.InDelta(t, 0, out[1][0], 1e-12)
	assert.InDelta(t, 1/std, out[2][0], 1e-12)
	for _, row := range out {
		assert.Equal(t, 0.0, row[1])
	}
}

func TestStandardScalerRejectsNaN(t *testing.T) {
	err := NewStandardScaler().Fit([][]float64{{1}, {math.NaN()}})
	assert.Error(t, err)
}

func TestStandardScalerNotFitted(t *testing.T) {
	_, err := NewStandardScaler().Transform([][]float64{{1}})
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestFitRejectsRaggedRows(t *testing.T) {
	ragged := [][]float64{{1, 2}, {3}, {5, 6}}

	err := NewMedianImputer().Fit(ragged)
	assert.True(t, errors.Is(err, ErrFeatureMismatch))

	scaler := NewStandardScaler()
	err = scaler.Fit(ragged)
	assert.True(t, errors.Is(err, ErrFeatureMismatch))
	assert.False(t, scaler.IsFitted)
}
