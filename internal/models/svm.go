package models

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

const (
	ClassWeightBalanced = "balanced"
	ClassWeightNone     = "none"
)

// LinearSVC is a linear support-vector classifier with hinge loss. It solves
// the dual problem by coordinate descent; the intercept is learned as the
// weight of a constant feature equal to 1, so it is regularized like the
// other weights.
type LinearSVC struct {
	BaseModel
	C           float64
	MaxIter     int
	Tol         float64
	ClassWeight string
	Seed        int64

	Coef      []float64
	Intercept float64
	NIter     int
	Converged bool
	IsFitted  bool
}

func NewLinearSVC(c float64, maxIter int, tol float64, classWeight string, seed int64) *LinearSVC {
	if classWeight == "" {
		classWeight = ClassWeightNone
	}
	return &LinearSVC{
		C:           c,
		MaxIter:     maxIter,
		Tol:         tol,
		ClassWeight: classWeight,
		Seed:        seed,
		BaseModel: BaseModel{
			Name: "LinearSVC",
			Params: map[string]any{
				"C":            c,
				"loss":         "hinge",
				"max_iter":     maxIter,
				"tol":          tol,
				"class_weight": classWeight,
				"random_state": seed,
			},
		},
	}
}

func (svc *LinearSVC) Fit(X [][]float64, y []int) error {
	if len(X) != len(y) {
		return errors.Wrapf(ErrShapeMismatch, "%d rows, %d labels", len(X), len(y))
	}
	if len(X) == 0 {
		return errors.New("cannot fit on an empty dataset")
	}

	classes := ExtractClasses(y)
	if len(classes) != 2 {
		return errors.Wrapf(ErrNotBinary, "found %d", len(classes))
	}

	n, d := len(X), len(X[0])
	sign := make([]float64, n)
	counts := [2]int{}
	for i, label := range y {
		if label == classes[1] {
			sign[i] = 1
			counts[1]++
		} else {
			sign[i] = -1
			counts[0]++
		}
	}

	weights := [2]float64{1, 1}
	if svc.ClassWeight == ClassWeightBalanced {
		weights[0] = float64(n) / (2 * float64(counts[0]))
		weights[1] = float64(n) / (2 * float64(counts[1]))
	}

	upper := make([]float64, n)
	qd := make([]float64, n)
	for i := range X {
		if len(X[i]) != d {
			return errors.Errorf("row %d has %d features, expected %d", i, len(X[i]), d)
		}
		if sign[i] > 0 {
			upper[i] = svc.C * weights[1]
		} else {
			upper[i] = svc.C * weights[0]
		}
		qd[i] = floats.Dot(X[i], X[i]) + 1
	}

	alpha := make([]float64, n)
	w := make([]float64, d)
	b := 0.0

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(svc.Seed))

	svc.Converged = false
	iter := 0
	for iter < svc.MaxIter {
		rng.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		pgMax, pgMin := math.Inf(-1), math.Inf(1)
		for _, i := range order {
			g := sign[i]*(floats.Dot(w, X[i])+b) - 1

			pg := g
			switch {
			case alpha[i] == 0:
				pg = math.Min(g, 0)
			case alpha[i] == upper[i]:
				pg = math.Max(g, 0)
			}
			pgMax = math.Max(pgMax, pg)
			pgMin = math.Min(pgMin, pg)

			if math.Abs(pg) > 1e-12 {
				old := alpha[i]
				alpha[i] = math.Min(math.Max(old-g/qd[i], 0), upper[i])
				delta := (alpha[i] - old) * sign[i]
				floats.AddScaled(w, delta, X[i])
				b += delta
			}
		}
		iter++

		if pgMax-pgMin <= svc.Tol {
			svc.Converged = true
			break
		}
	}

	if !svc.Converged {
		log.Warn().Int("max_iter", svc.MaxIter).Msg("linear SVC solver did not converge; increase max_iter")
	}

	svc.Coef = w
	svc.Intercept = b
	svc.NIter = iter
	svc.Classes = classes
	svc.IsFitted = true
	return nil
}

func (svc *LinearSVC) DecisionFunction(X [][]float64) ([]float64, error) {
	if !svc.IsFitted {
		return nil, ErrNotFitted
	}
	scores := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(svc.Coef) {
			return nil, errors.Errorf("row %d has %d features, expected %d", i, len(row), len(svc.Coef))
		}
		scores[i] = floats.Dot(svc.Coef, row) + svc.Intercept
	}
	return scores, nil
}

func (svc *LinearSVC) Predict(X [][]float64) ([]int, error) {
	scores, err := svc.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	predictions := make([]int, len(scores))
	for i, s := range scores {
		if s > 0 {
			predictions[i] = svc.Classes[1]
		} else {
			predictions[i] = svc.Classes[0]
		}
	}
	return predictions, nil
}

func (svc *LinearSVC) Clone() Model {
	return NewLinearSVC(svc.C, svc.MaxIter, svc.Tol, svc.ClassWeight, svc.Seed)
}
