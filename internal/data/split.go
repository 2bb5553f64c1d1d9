package data

import (
	"math"

	"github.com/pkg/errors"
)

// SplitFeaturesTarget projects the feature columns, in the given order, and
// the target column out of t. X is freshly allocated so callers may mutate
// it without touching the table.
func SplitFeaturesTarget(t *Table, features []string, target string) ([][]float64, []int, error) {
	columns := make([][]float64, len(features))
	for j, name := range features {
		col, err := t.Column(name)
		if err != nil {
			return nil, nil, err
		}
		columns[j] = col
	}

	rawTarget, err := t.Column(target)
	if err != nil {
		return nil, nil, err
	}
	y, err := EncodeBinaryTarget(rawTarget)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "column %q", target)
	}

	X := make([][]float64, t.Len())
	for i := range X {
		row := make([]float64, len(features))
		for j := range features {
			row[j] = columns[j][i]
		}
		X[i] = row
	}
	return X, y, nil
}

// EncodeBinaryTarget maps numeric target values onto {0,1}. Anything else,
// including a missing value, is rejected.
func EncodeBinaryTarget(values []float64) ([]int, error) {
	y := make([]int, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			return nil, errors.Wrapf(ErrNonBinaryTarget, "missing value at row %d", i+1)
		case v == 0:
			y[i] = 0
		case v == 1:
			y[i] = 1
		default:
			return nil, errors.Wrapf(ErrNonBinaryTarget, "value %g at row %d", v, i+1)
		}
	}
	return y, nil
}

// ClassCounts returns the number of samples per label.
func ClassCounts(y []int) map[int]int {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	return counts
}
