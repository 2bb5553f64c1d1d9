package preprocessing

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each feature on its mean and divides by its
// population standard deviation. Constant features keep a scale of 1.
type StandardScaler struct {
	Mean     []float64
	Scale    []float64
	IsFitted bool
}

func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

func (s *StandardScaler) Fit(X [][]float64) error {
	nFeatures, err := width(X)
	if err != nil {
		return err
	}
	s.Mean = make([]float64, nFeatures)
	s.Scale = make([]float64, nFeatures)

	column := make([]float64, len(X))
	for j := 0; j < nFeatures; j++ {
		for i := range X {
			column[i] = X[i][j]
		}
		mean, variance := stat.PopMeanVariance(column, nil)
		if math.IsNaN(mean) {
			return errors.Errorf("feature %d contains missing values", j)
		}
		s.Mean[j] = mean

		std := math.Sqrt(variance)
		if std == 0 {
			std = 1
		}
		s.Scale[j] = std
	}

	s.IsFitted = true
	return nil
}

func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if !s.IsFitted {
		return nil, ErrNotFitted
	}

	result := make([][]float64, len(X))
	for i := range X {
		if len(X[i]) != len(s.Mean) {
			return nil, errors.Wrapf(ErrFeatureMismatch, "row %d has %d features, expected %d", i, len(X[i]), len(s.Mean))
		}
		result[i] = make([]float64, len(X[i]))
		for j, v := range X[i] {
			result[i][j] = (v - s.Mean[j]) / s.Scale[j]
		}
	}

	return result, nil
}

func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
