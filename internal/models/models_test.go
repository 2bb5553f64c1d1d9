package models

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs returns two Gaussian clusters centred at -shift and +shift on every
// feature.
func blobs(n, d int, shift float64, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		label := i % 2
		centre := -shift
		if label == 1 {
			centre = shift
		}
		row := make([]float64, d)
		for j := range row {
			row[j] = centre + rng.NormFloat64()
		}
		X[i] = row
		y[i] = label
	}
	return X, y
}

func accuracy(yTrue, yPred []int) float64 {
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

func TestLinearSVCSeparable(t *testing.T) {
	X := [][]float64{{-2}, {-1.5}, {-1}, {1}, {1.5}, {2}}
	y := []int{0, 0, 0, 1, 1, 1}

	svc := NewLinearSVC(1, 10000, 1e-4, ClassWeightBalanced, 42)
	require.NoError(t, svc.Fit(X, y))

	pred, err := svc.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred)
	assert.Greater(t, svc.Coef[0], 0.0)
	assert.True(t, svc.Converged)
	assert.Equal(t, []int{0, 1}, svc.GetClasses())
}

func TestLinearSVCNonZeroLabels(t *testing.T) {
	X := [][]float64{{-2}, {-1}, {1}, {2}}
	y := []int{3, 3, 7, 7}

	svc := NewLinearSVC(1, 10000, 1e-4, ClassWeightNone, 1)
	require.NoError(t, svc.Fit(X, y))
	pred, err := svc.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred)
}

func TestLinearSVCRejectsSingleClass(t *testing.T) {
	err := NewLinearSVC(1, 10, 1e-4, "", 0).Fit([][]float64{{1}, {2}}, []int{1, 1})
	assert.True(t, errors.Is(err, ErrNotBinary))
}

func TestLinearSVCNotFitted(t *testing.T) {
	_, err := NewLinearSVC(1, 10, 1e-4, "", 0).Predict([][]float64{{1}})
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestLinearSVCMaxIterStopsEarly(t *testing.T) {
	X, y := blobs(100, 3, 0.2, 3)
	svc := NewLinearSVC(1, 2, 1e-12, ClassWeightBalanced, 42)
	require.NoError(t, svc.Fit(X, y))
	assert.Equal(t, 2, svc.NIter)
	assert.False(t, svc.Converged)
}

func TestLinearSVCDeterministic(t *testing.T) {
	X, y := blobs(120, 4, 0.8, 11)

	a := NewLinearSVC(1, 500000, 1e-4, ClassWeightBalanced, 42)
	b := NewLinearSVC(1, 500000, 1e-4, ClassWeightBalanced, 42)
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	assert.Equal(t, a.Coef, b.Coef)
	assert.Equal(t, a.Intercept, b.Intercept)
	assert.Equal(t, a.NIter, b.NIter)
}

func TestPipelineHandlesMissingValues(t *testing.T) {
	X, y := blobs(200, 6, 1.5, 5)
	for i := 0; i < len(X); i += 7 {
		X[i][i%6] = math.NaN()
	}

	p, err := NewPipeline(DefaultConfig(42))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))
	assert.True(t, p.IsFitted())

	pred, err := p.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, accuracy(y, pred), 0.9)

	scores, err := p.DecisionFunction(X)
	require.NoError(t, err)
	require.Len(t, scores, len(X))
	for i, s := range scores {
		if s > 0 {
			assert.Equal(t, 1, pred[i])
		} else {
			assert.Equal(t, 0, pred[i])
		}
	}
}

func TestPipelineCloneIsUnfitted(t *testing.T) {
	X, y := blobs(40, 2, 2, 1)
	p, err := NewPipeline(DefaultConfig(7))
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	clone := p.CloneUnfitted()
	assert.False(t, clone.IsFitted())
	assert.Equal(t, p.Config(), clone.Config())

	_, err = clone.Predict(X)
	assert.Error(t, err)
}

func TestPipelineParams(t *testing.T) {
	p, err := NewPipeline(DefaultConfig(42))
	require.NoError(t, err)

	params := p.GetParams()
	assert.Equal(t, "median", params["imputer__strategy"])
	assert.Equal(t, "standard", params["scaler__kind"])
	assert.Equal(t, "hinge", params["linear_svc__loss"])
	assert.Equal(t, 500000, params["linear_svc__max_iter"])
	assert.Equal(t, "balanced", params["linear_svc__class_weight"])
	assert.Equal(t, int64(42), params["linear_svc__random_state"])
}

func TestNewPipelineRejectsUnknownOptions(t *testing.T) {
	mc := DefaultConfig(1)
	mc.Imputation = "mean"
	_, err := NewPipeline(mc)
	assert.Error(t, err)

	mc = DefaultConfig(1)
	mc.ClassWeight = "custom"
	_, err = NewPipeline(mc)
	assert.Error(t, err)

	mc = DefaultConfig(1)
	mc.C = 0
	_, err = NewPipeline(mc)
	assert.Error(t, err)
}

func TestExtractClassesSorted(t *testing.T) {
	assert.Equal(t, []int{0, 1, 5}, ExtractClasses([]int{5, 1, 0, 1, 5}))
}
