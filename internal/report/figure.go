package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/evaluation"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/models"
)

const (
	ConfusionMatrixFile  = "confusion_matrix.png"
	ConfusionMatrixTitle = "Confusion Matrix of the Final Model"
)

// ConfusionMatrix is a visualizer around a model: Fit trains its own copy of
// the model, Score predicts and tallies, Save draws the heat map.
type ConfusionMatrix struct {
	Title   string
	Classes []int
	Labels  []string

	template models.Model
	fitted   models.Model
	matrix   [][]int
}

func NewConfusionMatrix(model models.Model, classes []int, labels []string) *ConfusionMatrix {
	return &ConfusionMatrix{
		Title:    ConfusionMatrixTitle,
		Classes:  classes,
		Labels:   labels,
		template: model,
	}
}

func (cm *ConfusionMatrix) Fit(X [][]float64, y []int) error {
	m := cm.template.Clone()
	if err := m.Fit(X, y); err != nil {
		return errors.Wrap(err, "fit confusion matrix model")
	}
	cm.fitted = m
	return nil
}

// Score fills the matrix from the fitted model's predictions on X and
// returns the accuracy.
func (cm *ConfusionMatrix) Score(X [][]float64, y []int) (float64, error) {
	if cm.fitted == nil {
		return 0, errors.New("confusion matrix must be fitted before scoring")
	}
	pred, err := cm.fitted.Predict(X)
	if err != nil {
		return 0, errors.Wrap(err, "predict")
	}
	cm.matrix = evaluation.ConfusionMatrix(y, pred, cm.Classes)
	return evaluation.Accuracy(y, pred), nil
}

func (cm *ConfusionMatrix) Matrix() [][]int {
	return cm.matrix
}

// Save renders the matrix to a PNG at path, creating the parent directory.
func (cm *ConfusionMatrix) Save(path string) error {
	if cm.matrix == nil {
		return errors.New("confusion matrix has not been scored")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}

	p := plot.New()
	p.Title.Text = cm.Title
	p.X.Label.Text = "Predicted class"
	p.Y.Label.Text = "True class"

	grid := confusionGrid{m: cm.matrix}
	hm := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	n := len(cm.matrix)
	cells := make(plotter.XYs, 0, n*n)
	texts := make([]string, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			cells = append(cells, plotter.XY{X: grid.X(c), Y: grid.Y(r)})
			texts = append(texts, fmt.Sprintf("%d", int(grid.Z(c, r))))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: cells, Labels: texts})
	if err != nil {
		return errors.Wrap(err, "cell labels")
	}
	p.Add(labels)

	xTicks := make([]plot.Tick, n)
	yTicks := make([]plot.Tick, n)
	for i := 0; i < n; i++ {
		xTicks[i] = plot.Tick{Value: float64(i), Label: cm.label(i)}
		yTicks[i] = plot.Tick{Value: float64(n - 1 - i), Label: cm.label(i)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

func (cm *ConfusionMatrix) label(i int) string {
	if i < len(cm.Labels) {
		return cm.Labels[i]
	}
	return fmt.Sprintf("%d", cm.Classes[i])
}

// confusionGrid lays the matrix out with the first true class on the top
// row.
type confusionGrid struct {
	m [][]int
}

func (g confusionGrid) Dims() (c, r int) {
	return len(g.m), len(g.m)
}

func (g confusionGrid) Z(c, r int) float64 {
	return float64(g.m[len(g.m)-1-r][c])
}

func (g confusionGrid) X(c int) float64 {
	return float64(c)
}

func (g confusionGrid) Y(r int) float64 {
	return float64(r)
}
