// Package features scores input columns against the target. The scores are
// diagnostic; nothing here feeds back into the model.
package features

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Score is the one-way ANOVA result for a single feature.
type Score struct {
	Feature string
	F       float64
	PValue  float64
}

// RankANOVA computes the ANOVA F-value of every column of X against the
// class labels in y and returns the features by descending F. X must not
// contain missing values. Columns with no variance at all score 0.
func RankANOVA(X [][]float64, y []int, names []string) ([]Score, error) {
	if len(X) != len(y) {
		return nil, errors.Errorf("X has %d rows but y has %d labels", len(X), len(y))
	}
	if len(X) == 0 {
		return nil, errors.New("cannot rank features of an empty dataset")
	}
	if len(X[0]) != len(names) {
		return nil, errors.Errorf("X has %d columns but %d names were given", len(X[0]), len(names))
	}

	groups := make(map[int][]int)
	for i, label := range y {
		groups[label] = append(groups[label], i)
	}
	labels := make([]int, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	n := len(X)
	k := len(labels)
	dfBetween := float64(k - 1)
	dfWithin := float64(n - k)

	scores := make([]Score, len(names))
	column := make([]float64, n)
	for j, name := range names {
		for i := range X {
			column[i] = X[i][j]
		}
		f := fValue(column, groups, labels, dfBetween, dfWithin)
		scores[j] = Score{Feature: name, F: f, PValue: pValue(f, dfBetween, dfWithin)}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].F != scores[b].F {
			return scores[a].F > scores[b].F
		}
		return scores[a].Feature < scores[b].Feature
	})
	return scores, nil
}

func fValue(column []float64, groups map[int][]int, labels []int, dfBetween, dfWithin float64) float64 {
	if dfBetween <= 0 || dfWithin <= 0 {
		return 0
	}

	grand := stat.Mean(column, nil)

	var ssBetween, ssWithin float64
	values := make([]float64, 0, len(column))
	for _, label := range labels {
		values = values[:0]
		for _, i := range groups[label] {
			values = append(values, column[i])
		}
		mean := stat.Mean(values, nil)
		ssBetween += float64(len(values)) * (mean - grand) * (mean - grand)
		for _, v := range values {
			ssWithin += (v - mean) * (v - mean)
		}
	}

	switch {
	case ssWithin == 0 && ssBetween == 0:
		return 0
	case ssWithin == 0:
		return math.Inf(1)
	}
	return (ssBetween / dfBetween) / (ssWithin / dfWithin)
}

func pValue(f, dfBetween, dfWithin float64) float64 {
	if dfBetween <= 0 || dfWithin <= 0 || f <= 0 {
		return 1
	}
	if math.IsInf(f, 1) {
		return 0
	}
	return distuv.F{D1: dfBetween, D2: dfWithin}.Survival(f)
}
