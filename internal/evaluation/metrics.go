package evaluation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

var ErrUndefinedMetric = errors.New("metric undefined when only one class is present")

type ClassificationMetrics struct {
	Accuracy          float64
	MacroPrecision    float64
	MacroRecall       float64
	MacroF1           float64
	WeightedPrecision float64
	WeightedRecall    float64
	WeightedF1        float64
	Classes           []int
	PerClassMetrics   map[int]ClassMetrics
	ConfusionMatrix   [][]int
	NumSamples        int
}

type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1Score   float64
	Support   int
}

// CalculateMetrics builds the per-class rows and the macro and
// support-weighted averages of the classification report. Rows of the
// confusion matrix are true classes, columns predicted classes, both in the
// order of classes.
func CalculateMetrics(yTrue, yPred []int, classes []int) (*ClassificationMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, errors.Errorf("y_true and y_pred have different lengths: %d vs %d", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, errors.New("cannot compute metrics on zero samples")
	}

	cm := ConfusionMatrix(yTrue, yPred, classes)
	m := &ClassificationMetrics{
		Accuracy:        Accuracy(yTrue, yPred),
		Classes:         append([]int(nil), classes...),
		PerClassMetrics: make(map[int]ClassMetrics, len(classes)),
		ConfusionMatrix: cm,
		NumSamples:      len(yTrue),
	}

	total := 0
	for i, class := range classes {
		// Column i sums predictions of class, row i sums its true samples.
		predicted, support := 0, 0
		for j := range classes {
			predicted += cm[j][i]
			support += cm[i][j]
		}
		tp := float64(cm[i][i])
		precision := safeDivide(tp, float64(predicted))
		recall := safeDivide(tp, float64(support))
		f1 := safeDivide(2*precision*recall, precision+recall)
		m.PerClassMetrics[class] = ClassMetrics{Precision: precision, Recall: recall, F1Score: f1, Support: support}

		m.MacroPrecision += precision
		m.MacroRecall += recall
		m.MacroF1 += f1
		m.WeightedPrecision += precision * float64(support)
		m.WeightedRecall += recall * float64(support)
		m.WeightedF1 += f1 * float64(support)
		total += support
	}

	n := float64(len(classes))
	m.MacroPrecision = safeDivide(m.MacroPrecision, n)
	m.MacroRecall = safeDivide(m.MacroRecall, n)
	m.MacroF1 = safeDivide(m.MacroF1, n)
	m.WeightedPrecision = safeDivide(m.WeightedPrecision, float64(total))
	m.WeightedRecall = safeDivide(m.WeightedRecall, float64(total))
	m.WeightedF1 = safeDivide(m.WeightedF1, float64(total))
	return m, nil
}

func ConfusionMatrix(yTrue, yPred []int, classes []int) [][]int {
	numClasses := len(classes)
	matrix := make([][]int, numClasses)
	for i := range matrix {
		matrix[i] = make([]int, numClasses)
	}

	classToIdx := make(map[int]int)
	for i, class := range classes {
		classToIdx[class] = i
	}

	for i := range yTrue {
		trueIdx, trueOk := classToIdx[yTrue[i]]
		predIdx, predOk := classToIdx[yPred[i]]
		if trueOk && predOk {
			matrix[trueIdx][predIdx]++
		}
	}

	return matrix
}

func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i, pred := range yPred {
		if pred == yTrue[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// ROCAUC is the area under the ROC curve of scores against the positive
// class.
func ROCAUC(yTrue []int, scores []float64, positive int) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, errors.Errorf("y_true and scores have different lengths: %d vs %d", len(yTrue), len(scores))
	}
	classes, nPos := binarize(yTrue, positive)
	if nPos == 0 || nPos == len(yTrue) {
		return 0, errors.Wrap(ErrUndefinedMetric, "roc_auc")
	}

	y := make([]float64, len(scores))
	copy(y, scores)
	stat.SortWeightedLabeled(y, classes, nil)

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// AveragePrecision summarizes the precision-recall curve as the
// recall-weighted mean of precision at each distinct score threshold.
func AveragePrecision(yTrue []int, scores []float64, positive int) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, errors.Errorf("y_true and scores have different lengths: %d vs %d", len(yTrue), len(scores))
	}
	isPos, nPos := binarize(yTrue, positive)
	if nPos == 0 {
		return 0, errors.Wrap(ErrUndefinedMetric, "average_precision")
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	var tp, fp int
	var ap, prevRecall float64
	for i := 0; i < len(order); {
		threshold := scores[order[i]]
		for i < len(order) && scores[order[i]] == threshold {
			if isPos[order[i]] {
				tp++
			} else {
				fp++
			}
			i++
		}
		recall := float64(tp) / float64(nPos)
		precision := float64(tp) / float64(tp+fp)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
	}
	return ap, nil
}

func binarize(yTrue []int, positive int) ([]bool, int) {
	out := make([]bool, len(yTrue))
	nPos := 0
	for i, label := range yTrue {
		if label == positive {
			out[i] = true
			nPos++
		}
	}
	return out, nPos
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}

// FormatReport renders the metrics as a precision/recall/F1/support table.
// names maps class labels to display names; unnamed classes print their
// label.
func (m *ClassificationMetrics) FormatReport(names map[int]string) string {
	labels := make([]string, len(m.Classes))
	width := len("weighted avg")
	for i, class := range m.Classes {
		name, ok := names[class]
		if !ok {
			name = fmt.Sprintf("%d", class)
		}
		labels[i] = name
		if len(name) > width {
			width = len(name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %10s %10s %10s %10s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for i, class := range m.Classes {
		cm := m.PerClassMetrics[class]
		fmt.Fprintf(&b, "%*s %10.2f %10.2f %10.2f %10d\n", width, labels[i], cm.Precision, cm.Recall, cm.F1Score, cm.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %10s %10s %10.2f %10d\n", width, "accuracy", "", "", m.Accuracy, m.NumSamples)
	fmt.Fprintf(&b, "%*s %10.2f %10.2f %10.2f %10d\n", width, "macro avg", m.MacroPrecision, m.MacroRecall, m.MacroF1, m.NumSamples)
	fmt.Fprintf(&b, "%*s %10.2f %10.2f %10.2f %10d\n", width, "weighted avg", m.WeightedPrecision, m.WeightedRecall, m.WeightedF1, m.NumSamples)
	return b.String()
}
