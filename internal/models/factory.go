package models

import (
	"github.com/pkg/errors"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/config"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/preprocessing"
)

const (
	ImputeMedian  = "median"
	ScaleStandard = "standard"
)

type ModelConfig struct {
	Imputation  string
	Scaling     string
	C           float64
	MaxIter     int
	Tol         float64
	ClassWeight string
	Seed        int64
}

// DefaultConfig holds the hyperparameters the potability model ships with.
func DefaultConfig(seed int64) ModelConfig {
	return ModelConfig{
		Imputation:  ImputeMedian,
		Scaling:     ScaleStandard,
		C:           config.DefaultC,
		MaxIter:     config.DefaultMaxIter,
		Tol:         config.DefaultTolerance,
		ClassWeight: ClassWeightBalanced,
		Seed:        seed,
	}
}

// ConfigFrom applies the tunable parts of the project configuration on top
// of DefaultConfig.
func ConfigFrom(cfg config.Config) ModelConfig {
	mc := DefaultConfig(cfg.Seed)
	if cfg.Model.C > 0 {
		mc.C = cfg.Model.C
	}
	if cfg.Model.MaxIter > 0 {
		mc.MaxIter = cfg.Model.MaxIter
	}
	if cfg.Model.Tolerance > 0 {
		mc.Tol = cfg.Model.Tolerance
	}
	return mc
}

func NewPipeline(mc ModelConfig) (*Pipeline, error) {
	if mc.Imputation == "" {
		mc.Imputation = ImputeMedian
	}
	if mc.Scaling == "" {
		mc.Scaling = ScaleStandard
	}
	if mc.ClassWeight == "" {
		mc.ClassWeight = ClassWeightBalanced
	}

	switch {
	case mc.Imputation != ImputeMedian:
		return nil, errors.Errorf("unknown imputation strategy: %s", mc.Imputation)
	case mc.Scaling != ScaleStandard:
		return nil, errors.Errorf("unknown scaler: %s", mc.Scaling)
	case mc.ClassWeight != ClassWeightBalanced && mc.ClassWeight != ClassWeightNone:
		return nil, errors.Errorf("unknown class weight: %s", mc.ClassWeight)
	case mc.C <= 0:
		return nil, errors.Errorf("C must be positive, got %g", mc.C)
	case mc.MaxIter <= 0:
		return nil, errors.Errorf("max_iter must be positive, got %d", mc.MaxIter)
	case mc.Tol <= 0:
		return nil, errors.Errorf("tol must be positive, got %g", mc.Tol)
	}

	return newPipeline(mc), nil
}

func newPipeline(mc ModelConfig) *Pipeline {
	return &Pipeline{
		Imputer:    preprocessing.NewMedianImputer(),
		Scaler:     preprocessing.NewStandardScaler(),
		Classifier: NewLinearSVC(mc.C, mc.MaxIter, mc.Tol, mc.ClassWeight, mc.Seed),
		config:     mc,
	}
}

// RestorePipeline assembles a pipeline from already fitted stages.
func RestorePipeline(mc ModelConfig, imputer *preprocessing.MedianImputer, scaler *preprocessing.StandardScaler, svc *LinearSVC) *Pipeline {
	return &Pipeline{
		Imputer:    imputer,
		Scaler:     scaler,
		Classifier: svc,
		config:     mc,
	}
}
