package evaluation

import (
	"context"
	"runtime"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/models"
)

// Scoring names, matching the metric each fold reports.
const (
	ScoringAccuracy         = "accuracy"
	ScoringROCAUC           = "roc_auc"
	ScoringAveragePrecision = "average_precision"
)

type CrossValidator struct {
	Splitter   *StratifiedKFold
	MaxWorkers int
}

// NewCrossValidator uses every available core when maxWorkers is not
// positive.
func NewCrossValidator(splitter *StratifiedKFold, maxWorkers int) *CrossValidator {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &CrossValidator{
		Splitter:   splitter,
		MaxWorkers: maxWorkers,
	}
}

// Score fits a fresh clone of model on every training split and scores it on
// the held-out fold. Scores are returned in fold order.
func (cv *CrossValidator) Score(ctx context.Context, model models.Model, X [][]float64, y []int, scoring string) ([]float64, error) {
	if len(X) != len(y) {
		return nil, errors.Errorf("x and y must have the same length: %d vs %d", len(X), len(y))
	}
	scorer, err := scorerFor(scoring)
	if err != nil {
		return nil, err
	}

	folds, err := cv.Splitter.Split(y)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(folds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cv.MaxWorkers)

	for i, testIndices := range folds {
		i, testIndices := i, testIndices
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := cv.evaluateFold(model, X, y, testIndices, scorer)
			if err != nil {
				return errors.Wrapf(err, "fold %d", i)
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().Str("scoring", scoring).Int("folds", len(folds)).Msg("cross-validation finished")
	return scores, nil
}

func (cv *CrossValidator) evaluateFold(model models.Model, X [][]float64, y []int, testIndices []int, scorer scorer) (float64, error) {
	trainIndices := TrainIndices(len(X), testIndices)
	XTrain, yTrain := Subset(X, y, trainIndices)
	XTest, yTest := Subset(X, y, testIndices)

	foldModel := model.Clone()
	if err := foldModel.Fit(XTrain, yTrain); err != nil {
		return 0, err
	}
	return scorer(foldModel, XTest, yTest)
}

type scorer func(m models.Model, X [][]float64, y []int) (float64, error)

func scorerFor(scoring string) (scorer, error) {
	switch scoring {
	case ScoringAccuracy:
		return func(m models.Model, X [][]float64, y []int) (float64, error) {
			pred, err := m.Predict(X)
			if err != nil {
				return 0, err
			}
			return Accuracy(y, pred), nil
		}, nil
	case ScoringROCAUC:
		return func(m models.Model, X [][]float64, y []int) (float64, error) {
			scores, err := m.DecisionFunction(X)
			if err != nil {
				return 0, err
			}
			return ROCAUC(y, scores, positiveClass(m))
		}, nil
	case ScoringAveragePrecision:
		return func(m models.Model, X [][]float64, y []int) (float64, error) {
			scores, err := m.DecisionFunction(X)
			if err != nil {
				return 0, err
			}
			return AveragePrecision(y, scores, positiveClass(m))
		}, nil
	default:
		return nil, errors.Errorf("unknown scoring: %s", scoring)
	}
}

func positiveClass(m models.Model) int {
	classes := m.GetClasses()
	return classes[len(classes)-1]
}

// Summary holds the aggregate of one cross-validation pass. Std is the
// population standard deviation.
type Summary struct {
	Scores []float64
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
}

func Summarize(scores []float64) (Summary, error) {
	s := Summary{Scores: scores}
	var err error
	if s.Mean, err = stats.Mean(scores); err != nil {
		return s, errors.Wrap(err, "mean")
	}
	if s.Std, err = stats.StandardDeviationPopulation(scores); err != nil {
		return s, errors.Wrap(err, "standard deviation")
	}
	if s.Min, err = stats.Min(scores); err != nil {
		return s, errors.Wrap(err, "min")
	}
	if s.Max, err = stats.Max(scores); err != nil {
		return s, errors.Wrap(err, "max")
	}
	return s, nil
}
