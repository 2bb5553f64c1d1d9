package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/evaluation"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/features"
)

// ClassNames are the display labels of the potability target.
var ClassNames = map[int]string{
	0: "not potable",
	1: "potable",
}

// Printer writes the human-readable reports. Colour is disabled by
// fatih/color when out is not a terminal.
type Printer struct {
	out io.Writer

	green  func(a ...any) string
	red    func(a ...any) string
	yellow func(a ...any) string
	cyan   func(a ...any) string
	blue   func(a ...any) string
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:    out,
		green:  color.New(color.FgGreen).SprintFunc(),
		red:    color.New(color.FgRed).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		cyan:   color.New(color.FgCyan).SprintFunc(),
		blue:   color.New(color.FgBlue).SprintFunc(),
	}
}

func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", p.red("✗"), msg)
}

func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", p.green("✓"), msg)
}

func (p *Printer) PrintRanking(scores []features.Score) {
	fmt.Fprintln(p.out, p.blue("\n--- Feature Ranking (ANOVA F-test) ---"))
	for _, s := range scores {
		fmt.Fprintf(p.out, "%s: %.2f  (p=%.4g)\n", s.Feature, s.F, s.PValue)
	}
	fmt.Fprintln(p.out, strings.Repeat("-", 50))
}

// TrainingSummary is everything the training run reports after
// cross-validation.
type TrainingSummary struct {
	Folds    int
	Accuracy evaluation.Summary
	ROCAUC   evaluation.Summary
	PRAUC    evaluation.Summary
}

func (p *Printer) PrintTrainingSummary(s TrainingSummary) {
	fmt.Fprintln(p.out, p.blue("\n--- Cross-Validation Summary ---"))
	fmt.Fprintf(p.out, "Accuracy list: %s\n", formatList(s.Accuracy.Scores))
	fmt.Fprintf(p.out, "\nMaximum accuracy: %s %%\n", p.green(fmt.Sprintf("%.2f", s.Accuracy.Max*100)))
	fmt.Fprintf(p.out, "Minimum accuracy: %s %%\n", p.yellow(fmt.Sprintf("%.2f", s.Accuracy.Min*100)))
	fmt.Fprintf(p.out, "Overall mean accuracy: %s %%\n", p.cyan(fmt.Sprintf("%.2f", s.Accuracy.Mean*100)))
	fmt.Fprintf(p.out, "Standard deviation: %.4f\n", s.Accuracy.Std)

	fmt.Fprintf(p.out, "\nROC AUC mean: %.4f\n", s.ROCAUC.Mean)
	fmt.Fprintf(p.out, "ROC AUC std dev: %.4f\n", s.ROCAUC.Std)
	fmt.Fprintf(p.out, "PR AUC mean: %.4f\n", s.PRAUC.Mean)
	fmt.Fprintf(p.out, "PR AUC std dev: %.4f\n", s.PRAUC.Std)
}

func (p *Printer) PrintClassificationReport(m *evaluation.ClassificationMetrics) {
	fmt.Fprintln(p.out, p.blue("\n--- Final Classification Report ---"))
	fmt.Fprint(p.out, m.FormatReport(ClassNames))
}

func formatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
