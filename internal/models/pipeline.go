package models

import (
	"github.com/pkg/errors"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/preprocessing"
)

// Step names, in the only order a pipeline is ever assembled or restored.
const (
	StepImputer    = "imputer"
	StepScaler     = "scaler"
	StepClassifier = "linear_svc"
)

var StepOrder = []string{StepImputer, StepScaler, StepClassifier}

// Pipeline chains median imputation, standardization and a linear SVC into
// one fit/predict unit.
type Pipeline struct {
	Imputer    *preprocessing.MedianImputer
	Scaler     *preprocessing.StandardScaler
	Classifier *LinearSVC

	config ModelConfig
}

func (p *Pipeline) Fit(X [][]float64, y []int) error {
	if len(X) != len(y) {
		return errors.Wrapf(ErrShapeMismatch, "%d rows, %d labels", len(X), len(y))
	}

	imputed, err := p.Imputer.FitTransform(X)
	if err != nil {
		return errors.Wrap(err, StepImputer)
	}
	scaled, err := p.Scaler.FitTransform(imputed)
	if err != nil {
		return errors.Wrap(err, StepScaler)
	}
	if err := p.Classifier.Fit(scaled, y); err != nil {
		return errors.Wrap(err, StepClassifier)
	}
	return nil
}

// Transform runs the two preprocessing stages with their fitted parameters.
func (p *Pipeline) Transform(X [][]float64) ([][]float64, error) {
	imputed, err := p.Imputer.Transform(X)
	if err != nil {
		return nil, errors.Wrap(err, StepImputer)
	}
	scaled, err := p.Scaler.Transform(imputed)
	if err != nil {
		return nil, errors.Wrap(err, StepScaler)
	}
	return scaled, nil
}

func (p *Pipeline) Predict(X [][]float64) ([]int, error) {
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.Classifier.Predict(Xt)
}

func (p *Pipeline) DecisionFunction(X [][]float64) ([]float64, error) {
	Xt, err := p.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.Classifier.DecisionFunction(Xt)
}

func (p *Pipeline) IsFitted() bool {
	return p.Imputer.IsFitted && p.Scaler.IsFitted && p.Classifier.IsFitted
}

func (p *Pipeline) GetName() string {
	return "Pipeline(" + StepImputer + "," + StepScaler + "," + StepClassifier + ")"
}

func (p *Pipeline) GetParams() map[string]any {
	params := map[string]any{
		"imputer__strategy": p.config.Imputation,
		"scaler__kind":      p.config.Scaling,
	}
	for k, v := range p.Classifier.GetParams() {
		params[StepClassifier+"__"+k] = v
	}
	return params
}

func (p *Pipeline) GetClasses() []int {
	return p.Classifier.GetClasses()
}

func (p *Pipeline) Config() ModelConfig {
	return p.config
}

func (p *Pipeline) Clone() Model {
	return p.CloneUnfitted()
}

// CloneUnfitted returns a fresh pipeline with the same hyperparameters.
func (p *Pipeline) CloneUnfitted() *Pipeline {
	return newPipeline(p.config)
}
