package preprocessing

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

var (
	ErrNotFitted       = errors.New("transformer must be fitted before transform")
	ErrEmptyInput      = errors.New("empty dataset")
	ErrAllMissing      = errors.New("column has no observed values")
	ErrFeatureMismatch = errors.New("feature count does not match fitted data")
)

// MedianImputer replaces NaN cells with the median of the observed values
// of their column.
type MedianImputer struct {
	Statistics []float64
	IsFitted   bool
}

func NewMedianImputer() *MedianImputer {
	return &MedianImputer{}
}

func (m *MedianImputer) Fit(X [][]float64) error {
	nFeatures, err := width(X)
	if err != nil {
		return err
	}
	medians := make([]float64, nFeatures)
	observed := make([]float64, 0, len(X))

	for j := 0; j < nFeatures; j++ {
		observed = observed[:0]
		for i := range X {
			if v := X[i][j]; !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return errors.Wrapf(ErrAllMissing, "feature %d", j)
		}
		median, err := stats.Median(observed)
		if err != nil {
			return errors.Wrapf(err, "median of feature %d", j)
		}
		medians[j] = median
	}

	m.Statistics = medians
	m.IsFitted = true
	return nil
}

func (m *MedianImputer) Transform(X [][]float64) ([][]float64, error) {
	if !m.IsFitted {
		return nil, ErrNotFitted
	}

	result := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Statistics) {
			return nil, errors.Wrapf(ErrFeatureMismatch, "row %d has %d features, expected %d", i, len(row), len(m.Statistics))
		}
		out := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				v = m.Statistics[j]
			}
			out[j] = v
		}
		result[i] = out
	}
	return result, nil
}

func (m *MedianImputer) FitTransform(X [][]float64) ([][]float64, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// width returns the common row length of X.
func width(X [][]float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyInput
	}
	n := len(X[0])
	for i, row := range X {
		if len(row) != n {
			return 0, errors.Wrapf(ErrFeatureMismatch, "row %d has %d features, expected %d", i, len(row), n)
		}
	}
	return n, nil
}
