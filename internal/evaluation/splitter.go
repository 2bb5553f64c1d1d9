package evaluation

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

var ErrInvalidFolds = errors.New("invalid number of folds")

// StratifiedKFold partitions row indices into K held-out folds that keep the
// class ratio of y. The partition depends only on (K, seed, y).
type StratifiedKFold struct {
	nFolds     int
	shuffle    bool
	randomSeed int64
}

func NewStratifiedKFold(nFolds int, shuffle bool, randomSeed int64) *StratifiedKFold {
	return &StratifiedKFold{
		nFolds:     nFolds,
		shuffle:    shuffle,
		randomSeed: randomSeed,
	}
}

// Split returns the held-out indices of every fold, each sorted ascending.
// K must be at least 2 and at most the size of the smallest class.
func (s *StratifiedKFold) Split(y []int) ([][]int, error) {
	if s.nFolds < 2 {
		return nil, errors.Wrapf(ErrInvalidFolds, "%d (must be at least 2)", s.nFolds)
	}

	classIndices := make(map[int][]int)
	for i, label := range y {
		classIndices[label] = append(classIndices[label], i)
	}
	if len(classIndices) < 2 {
		return nil, errors.Errorf("stratification needs at least 2 classes, found %d", len(classIndices))
	}

	classes := make([]int, 0, len(classIndices))
	for class, indices := range classIndices {
		if len(indices) < s.nFolds {
			return nil, errors.Wrapf(ErrInvalidFolds,
				"%d folds but class %d has only %d members", s.nFolds, class, len(indices))
		}
		classes = append(classes, class)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(s.randomSeed))
	folds := make([][]int, s.nFolds)
	cursor := 0
	for _, class := range classes {
		indices := classIndices[class]
		if s.shuffle {
			rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
		for _, idx := range indices {
			folds[cursor] = append(folds[cursor], idx)
			cursor = (cursor + 1) % s.nFolds
		}
	}

	for _, fold := range folds {
		sort.Ints(fold)
	}
	return folds, nil
}

// TrainIndices returns the complement of a held-out fold in [0, n).
func TrainIndices(n int, testIndices []int) []int {
	held := make([]bool, n)
	for _, idx := range testIndices {
		held[idx] = true
	}
	train := make([]int, 0, n-len(testIndices))
	for i := 0; i < n; i++ {
		if !held[i] {
			train = append(train, i)
		}
	}
	return train
}

// Subset copies the selected rows of X and y.
func Subset(X [][]float64, y []int, indices []int) ([][]float64, []int) {
	Xs := make([][]float64, len(indices))
	ys := make([]int, len(indices))
	for i, idx := range indices {
		Xs[i] = make([]float64, len(X[idx]))
		copy(Xs[i], X[idx])
		ys[i] = y[idx]
	}
	return Xs, ys
}
