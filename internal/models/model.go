package models

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrNotFitted     = errors.New("model must be fitted before predict")
	ErrNotBinary     = errors.New("classifier needs exactly two classes")
	ErrShapeMismatch = errors.New("X and y have different lengths")
)

// Model is a fit/predict unit. Clone returns an unfitted copy with the same
// hyperparameters, which is what cross-validation fits on every fold.
type Model interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
	DecisionFunction(X [][]float64) ([]float64, error)
	GetName() string
	GetParams() map[string]any
	GetClasses() []int
	Clone() Model
}

// Transformer is an unsupervised preprocessing stage.
type Transformer interface {
	Fit(X [][]float64) error
	Transform(X [][]float64) ([][]float64, error)
	FitTransform(X [][]float64) ([][]float64, error)
}

type BaseModel struct {
	Name    string
	Params  map[string]any
	Classes []int
}

func (bm *BaseModel) GetName() string {
	return bm.Name
}

func (bm *BaseModel) GetParams() map[string]any {
	return bm.Params
}

func (bm *BaseModel) GetClasses() []int {
	return bm.Classes
}

// ExtractClasses returns the distinct labels of y in ascending order.
func ExtractClasses(y []int) []int {
	classMap := make(map[int]bool)
	for _, label := range y {
		classMap[label] = true
	}

	classes := make([]int, 0, len(classMap))
	for class := range classMap {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	return classes
}
