package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSeed       = 42
	DefaultFolds      = 200
	DefaultTarget     = "Potability"
	DefaultDataPath   = "data/raw/water.csv"
	DefaultC          = 1.0
	DefaultMaxIter    = 500000
	DefaultTolerance  = 1e-4
	DefaultModelFile  = "best.json"
	DefaultResultsCSV = "results.csv"
)

// DefaultFeatures are the chemical measurements used by the classifier, in
// the order they are fed to the pipeline.
var DefaultFeatures = []string{
	"ph",
	"Chloramines",
	"Sulfate",
	"Conductivity",
	"Trihalomethanes",
	"Turbidity",
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is passed by value to the orchestrators. Nothing in the repository
// reads configuration from package state.
type Config struct {
	Seed           int64    `yaml:"seed"`
	Folds          int      `yaml:"folds"`
	FeatureColumns []string `yaml:"feature_columns"`
	TargetColumn   string   `yaml:"target_column"`

	Root         string `yaml:"-"`
	DataPath     string `yaml:"data_path"`
	ArtifactsDir string `yaml:"artifacts_dir"`
	ModelPath    string `yaml:"model_path"`
	FiguresDir   string `yaml:"figures_dir"`
	ReportsDir   string `yaml:"reports_dir"`
	ResultsPath  string `yaml:"results_path"`

	Model   ModelParams `yaml:"model"`
	Workers int         `yaml:"workers"`
}

type ModelParams struct {
	C         float64 `yaml:"c"`
	MaxIter   int     `yaml:"max_iter"`
	Tolerance float64 `yaml:"tol"`
}

// Default returns the fixed project layout rooted at root.
func Default(root string) Config {
	if root == "" {
		root = "."
	}
	artifacts := filepath.Join(root, "artifacts")
	reports := filepath.Join(root, "reports")

	features := make([]string, len(DefaultFeatures))
	copy(features, DefaultFeatures)

	return Config{
		Seed:           DefaultSeed,
		Folds:          DefaultFolds,
		FeatureColumns: features,
		TargetColumn:   DefaultTarget,
		Root:           root,
		DataPath:       filepath.Join(root, DefaultDataPath),
		ArtifactsDir:   artifacts,
		ModelPath:      filepath.Join(artifacts, DefaultModelFile),
		FiguresDir:     filepath.Join(root, "figures"),
		ReportsDir:     reports,
		ResultsPath:    filepath.Join(reports, DefaultResultsCSV),
		Model: ModelParams{
			C:         DefaultC,
			MaxIter:   DefaultMaxIter,
			Tolerance: DefaultTolerance,
		},
	}
}

// Load overlays the YAML file at path onto Default(root). An empty path
// returns the defaults. Relative paths in the file are resolved against root.
func Load(path, root string) (Config, error) {
	cfg := Default(root)
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var o overlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	cfg.merge(o)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// overlay mirrors Config for YAML decoding. Numeric fields are pointers so
// an explicit zero in the file is told apart from an absent key.
type overlay struct {
	Seed           *int64   `yaml:"seed"`
	Folds          *int     `yaml:"folds"`
	FeatureColumns []string `yaml:"feature_columns"`
	TargetColumn   string   `yaml:"target_column"`

	DataPath     string `yaml:"data_path"`
	ArtifactsDir string `yaml:"artifacts_dir"`
	ModelPath    string `yaml:"model_path"`
	FiguresDir   string `yaml:"figures_dir"`
	ReportsDir   string `yaml:"reports_dir"`
	ResultsPath  string `yaml:"results_path"`

	Model struct {
		C         *float64 `yaml:"c"`
		MaxIter   *int     `yaml:"max_iter"`
		Tolerance *float64 `yaml:"tol"`
	} `yaml:"model"`
	Workers *int `yaml:"workers"`
}

func (c *Config) merge(o overlay) {
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.Folds != nil {
		c.Folds = *o.Folds
	}
	if len(o.FeatureColumns) > 0 {
		c.FeatureColumns = append([]string(nil), o.FeatureColumns...)
	}
	if o.TargetColumn != "" {
		c.TargetColumn = o.TargetColumn
	}
	if o.DataPath != "" {
		c.DataPath = c.resolve(o.DataPath)
	}
	if o.ArtifactsDir != "" {
		c.ArtifactsDir = c.resolve(o.ArtifactsDir)
		c.ModelPath = filepath.Join(c.ArtifactsDir, DefaultModelFile)
	}
	if o.ModelPath != "" {
		c.ModelPath = c.resolve(o.ModelPath)
	}
	if o.FiguresDir != "" {
		c.FiguresDir = c.resolve(o.FiguresDir)
	}
	if o.ReportsDir != "" {
		c.ReportsDir = c.resolve(o.ReportsDir)
		c.ResultsPath = filepath.Join(c.ReportsDir, DefaultResultsCSV)
	}
	if o.ResultsPath != "" {
		c.ResultsPath = c.resolve(o.ResultsPath)
	}
	if o.Model.C != nil {
		c.Model.C = *o.Model.C
	}
	if o.Model.MaxIter != nil {
		c.Model.MaxIter = *o.Model.MaxIter
	}
	if o.Model.Tolerance != nil {
		c.Model.Tolerance = *o.Model.Tolerance
	}
	if o.Workers != nil {
		c.Workers = *o.Workers
	}
}

func (c Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Validate checks the invariants that do not depend on the data.
func (c Config) Validate() error {
	if c.Folds < 2 {
		return errors.Wrapf(ErrInvalidConfig, "folds must be at least 2, got %d", c.Folds)
	}
	if len(c.FeatureColumns) == 0 {
		return errors.Wrap(ErrInvalidConfig, "no feature columns configured")
	}
	if c.TargetColumn == "" {
		return errors.Wrap(ErrInvalidConfig, "target column is empty")
	}
	seen := make(map[string]bool, len(c.FeatureColumns))
	for _, name := range c.FeatureColumns {
		if name == c.TargetColumn {
			return errors.Wrapf(ErrInvalidConfig, "target column %q listed as a feature", name)
		}
		if seen[name] {
			return errors.Wrapf(ErrInvalidConfig, "duplicate feature column %q", name)
		}
		seen[name] = true
	}
	if c.Model.C <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "C must be positive, got %g", c.Model.C)
	}
	if c.Model.MaxIter <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_iter must be positive, got %d", c.Model.MaxIter)
	}
	if c.Model.Tolerance <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "tol must be positive, got %g", c.Model.Tolerance)
	}
	if c.Workers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// WithSeed and WithFolds return modified copies; Config values are never
// mutated after construction.
func (c Config) WithSeed(seed int64) Config {
	c.FeatureColumns = append([]string(nil), c.FeatureColumns...)
	c.Seed = seed
	return c
}

func (c Config) WithFolds(k int) Config {
	c.FeatureColumns = append([]string(nil), c.FeatureColumns...)
	c.Folds = k
	return c
}

func (c Config) WithDataPath(path string) Config {
	c.FeatureColumns = append([]string(nil), c.FeatureColumns...)
	c.DataPath = path
	return c
}
