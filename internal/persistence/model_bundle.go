package persistence

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/models"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/preprocessing"
)

const SchemaVersion = 1

const (
	KindMedianImputer  = "median_imputer"
	KindStandardScaler = "standard_scaler"
	KindLinearSVC      = "linear_svc"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrSchemaVersion    = errors.New("unsupported artifact schema version")
	ErrStageOrder       = errors.New("artifact stages out of order")
	ErrNotFitted        = errors.New("pipeline is not fitted")
)

// ModelBundle is the on-disk form of a fitted pipeline. Every numeric
// parameter is stored as a decimal string so values survive the round trip
// bit for bit.
type ModelBundle struct {
	SchemaVersion int            `json:"schema_version"`
	RunID         string         `json:"run_id"`
	CreatedAt     time.Time      `json:"created_at"`
	Metadata      BundleMetadata `json:"metadata"`
	Stages        []Stage        `json:"stages"`
}

type BundleMetadata struct {
	ModelName string   `json:"model_name"`
	Dataset   string   `json:"dataset,omitempty"`
	Features  []string `json:"features"`
	Classes   []int    `json:"classes"`
	CVFolds   int      `json:"cv_folds,omitempty"`
	CVMean    float64  `json:"cv_mean_accuracy,omitempty"`
}

type Stage struct {
	Name string `json:"name"`
	Kind string `json:"kind"`

	Statistics []decimal.Decimal `json:"statistics,omitempty"`

	Mean  []decimal.Decimal `json:"mean,omitempty"`
	Scale []decimal.Decimal `json:"scale,omitempty"`

	Params    *SVCParams        `json:"params,omitempty"`
	Coef      []decimal.Decimal `json:"coef,omitempty"`
	Intercept *decimal.Decimal  `json:"intercept,omitempty"`
	Classes   []int             `json:"classes,omitempty"`
	NIter     int               `json:"n_iter,omitempty"`
	Converged bool              `json:"converged,omitempty"`
}

type SVCParams struct {
	C           decimal.Decimal `json:"C"`
	Loss        string          `json:"loss"`
	MaxIter     int             `json:"max_iter"`
	Tol         decimal.Decimal `json:"tol"`
	ClassWeight string          `json:"class_weight"`
	RandomState int64           `json:"random_state"`
}

// NewModelBundle captures a fitted pipeline.
func NewModelBundle(p *models.Pipeline, features []string) (*ModelBundle, error) {
	if !p.IsFitted() {
		return nil, ErrNotFitted
	}

	mc := p.Config()
	svc := p.Classifier
	intercept := decimal.NewFromFloat(svc.Intercept)

	return &ModelBundle{
		SchemaVersion: SchemaVersion,
		RunID:         uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Metadata: BundleMetadata{
			ModelName: p.GetName(),
			Features:  append([]string(nil), features...),
			Classes:   append([]int(nil), svc.Classes...),
		},
		Stages: []Stage{
			{
				Name:       models.StepImputer,
				Kind:       KindMedianImputer,
				Statistics: toDecimals(p.Imputer.Statistics),
			},
			{
				Name:  models.StepScaler,
				Kind:  KindStandardScaler,
				Mean:  toDecimals(p.Scaler.Mean),
				Scale: toDecimals(p.Scaler.Scale),
			},
			{
				Name: models.StepClassifier,
				Kind: KindLinearSVC,
				Params: &SVCParams{
					C:           decimal.NewFromFloat(mc.C),
					Loss:        "hinge",
					MaxIter:     mc.MaxIter,
					Tol:         decimal.NewFromFloat(mc.Tol),
					ClassWeight: mc.ClassWeight,
					RandomState: mc.Seed,
				},
				Coef:      toDecimals(svc.Coef),
				Intercept: &intercept,
				Classes:   append([]int(nil), svc.Classes...),
				NIter:     svc.NIter,
				Converged: svc.Converged,
			},
		},
	}, nil
}

// Save writes the bundle to filename, truncating any existing file.
func (mb *ModelBundle) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(mb); err != nil {
		return errors.Wrap(err, "failed to encode bundle")
	}

	return file.Close()
}

func LoadModelBundle(filename string) (*ModelBundle, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrArtifactNotFound, "%s", filename)
		}
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	var bundle ModelBundle
	if err := json.NewDecoder(file).Decode(&bundle); err != nil {
		return nil, errors.Wrap(err, "failed to decode bundle")
	}
	if bundle.SchemaVersion != SchemaVersion {
		return nil, errors.Wrapf(ErrSchemaVersion, "got %d, want %d", bundle.SchemaVersion, SchemaVersion)
	}

	return &bundle, nil
}

// Pipeline rebuilds the fitted pipeline. The stage list must be exactly
// imputer, scaler, linear_svc.
func (mb *ModelBundle) Pipeline() (*models.Pipeline, error) {
	if len(mb.Stages) != len(models.StepOrder) {
		return nil, errors.Wrapf(ErrStageOrder, "expected %d stages, found %d", len(models.StepOrder), len(mb.Stages))
	}
	kinds := []string{KindMedianImputer, KindStandardScaler, KindLinearSVC}
	for i, stage := range mb.Stages {
		if stage.Name != models.StepOrder[i] || stage.Kind != kinds[i] {
			return nil, errors.Wrapf(ErrStageOrder, "stage %d is %s/%s, expected %s/%s",
				i, stage.Name, stage.Kind, models.StepOrder[i], kinds[i])
		}
	}

	imp, scl, clf := mb.Stages[0], mb.Stages[1], mb.Stages[2]
	nFeatures := len(imp.Statistics)
	if len(scl.Mean) != nFeatures || len(scl.Scale) != nFeatures || len(clf.Coef) != nFeatures {
		return nil, errors.Errorf("stage parameter lengths disagree: imputer %d, scaler %d/%d, classifier %d",
			nFeatures, len(scl.Mean), len(scl.Scale), len(clf.Coef))
	}
	if clf.Params == nil || clf.Intercept == nil {
		return nil, errors.New("linear_svc stage is missing its parameters")
	}
	if len(clf.Classes) != 2 {
		return nil, errors.Wrapf(models.ErrNotBinary, "artifact lists %d classes", len(clf.Classes))
	}

	imputer := preprocessing.NewMedianImputer()
	imputer.Statistics = toFloats(imp.Statistics)
	imputer.IsFitted = true

	scaler := preprocessing.NewStandardScaler()
	scaler.Mean = toFloats(scl.Mean)
	scaler.Scale = toFloats(scl.Scale)
	scaler.IsFitted = true

	mc := models.ModelConfig{
		Imputation:  models.ImputeMedian,
		Scaling:     models.ScaleStandard,
		C:           clf.Params.C.InexactFloat64(),
		MaxIter:     clf.Params.MaxIter,
		Tol:         clf.Params.Tol.InexactFloat64(),
		ClassWeight: clf.Params.ClassWeight,
		Seed:        clf.Params.RandomState,
	}
	svc := models.NewLinearSVC(mc.C, mc.MaxIter, mc.Tol, mc.ClassWeight, mc.Seed)
	svc.Coef = toFloats(clf.Coef)
	svc.Intercept = clf.Intercept.InexactFloat64()
	svc.Classes = append([]int(nil), clf.Classes...)
	svc.NIter = clf.NIter
	svc.Converged = clf.Converged
	svc.IsFitted = true

	return models.RestorePipeline(mc, imputer, scaler, svc), nil
}

// SavePipeline is the one-call form used by the training run.
func SavePipeline(p *models.Pipeline, features []string, meta BundleMetadata, filename string) (*ModelBundle, error) {
	bundle, err := NewModelBundle(p, features)
	if err != nil {
		return nil, err
	}
	bundle.Metadata.Dataset = meta.Dataset
	bundle.Metadata.CVFolds = meta.CVFolds
	bundle.Metadata.CVMean = meta.CVMean
	if err := bundle.Save(filename); err != nil {
		return nil, err
	}
	return bundle, nil
}

// LoadPipeline reads filename and rebuilds the fitted pipeline.
func LoadPipeline(filename string) (*models.Pipeline, *ModelBundle, error) {
	bundle, err := LoadModelBundle(filename)
	if err != nil {
		return nil, nil, err
	}
	p, err := bundle.Pipeline()
	if err != nil {
		return nil, nil, err
	}
	return p, bundle, nil
}

func toDecimals(values []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func toFloats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.InexactFloat64()
	}
	return out
}
