package data

import (
	"github.com/pkg/errors"
)

type DataValidator struct{}

func NewDataValidator() *DataValidator {
	return &DataValidator{}
}

// ValidateDataset checks shape consistency. Missing feature values are
// allowed; the imputer deals with them.
func (dv *DataValidator) ValidateDataset(X [][]float64, y []int) error {
	if len(X) == 0 {
		return ErrEmptyDataset
	}

	if len(X) != len(y) {
		return errors.Errorf("feature matrix and labels have different lengths: %d vs %d", len(X), len(y))
	}

	nFeatures := len(X[0])
	if nFeatures == 0 {
		return errors.New("features cannot be empty")
	}

	for i, sample := range X {
		if len(sample) != nFeatures {
			return errors.Errorf("inconsistent feature count at sample %d: expected %d, got %d", i, nFeatures, len(sample))
		}
	}

	return dv.ValidateLabels(y)
}

func (dv *DataValidator) ValidateLabels(y []int) error {
	if len(y) == 0 {
		return errors.New("labels are empty")
	}

	counts := ClassCounts(y)
	for label := range counts {
		if label != 0 && label != 1 {
			return errors.Wrapf(ErrNonBinaryTarget, "label %d", label)
		}
	}
	if len(counts) < 2 {
		return errors.Errorf("dataset must have both classes, found %d", len(counts))
	}

	return nil
}
