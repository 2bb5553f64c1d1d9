package experiment

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/config"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/data"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/jobs"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/persistence"
)

func init() {
	color.NoColor = true
}

// writeWaterCSV writes n rows with the default feature columns. Sulfate
// carries most of the class signal; roughly one cell in twenty is empty.
func writeWaterCSV(t *testing.T, dir string, n int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(7))

	var b strings.Builder
	b.WriteString(strings.Join(config.DefaultFeatures, ","))
	b.WriteString(",Potability\n")
	for i := 0; i < n; i++ {
		label := 0
		if i%5 < 2 {
			label = 1
		}
		shift := float64(label)
		row := []float64{
			7 + rng.NormFloat64(),
			7 + 0.3*shift + rng.NormFloat64(),
			300 + 60*shift + 10*rng.NormFloat64(),
			420 + 80*rng.NormFloat64(),
			66 + 15*rng.NormFloat64(),
			4 + 0.8*rng.NormFloat64(),
		}
		cells := make([]string, len(row))
		for j, v := range row {
			if rng.Intn(20) == 0 {
				continue
			}
			cells[j] = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(&b, "%s,%d\n", strings.Join(cells, ","), label)
	}

	path := filepath.Join(dir, "water.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func testConfig(t *testing.T, root string) config.Config {
	t.Helper()
	cfg := config.Default(root).WithFolds(5).WithDataPath(writeWaterCSV(t, root, 200))
	cfg.Model.MaxIter = 5000
	cfg.Workers = 2
	return cfg
}

func TestTrainEndToEnd(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	var out bytes.Buffer
	res, err := Train(context.Background(), cfg, TrainOptions{Out: &out})
	require.NoError(t, err)

	assert.Equal(t, []jobs.Stage{
		jobs.StageLoad, jobs.StageSplit, jobs.StageRank, jobs.StageBuildPipeline,
		jobs.StageCVAccuracy, jobs.StageFitFinal, jobs.StageCVROCAUC, jobs.StageCVPRAUC,
		jobs.StageReport, jobs.StagePersist, jobs.StageDone,
	}, res.Job.History())
	assert.Equal(t, jobs.JobCompleted, res.Job.GetStatus())
	logs := res.Job.GetLogs()
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0], "loaded 200 rows")

	require.Len(t, res.Ranking, len(cfg.FeatureColumns))
	assert.Equal(t, "Sulfate", res.Ranking[0].Feature)

	assert.Len(t, res.Summary.Accuracy.Scores, 5)
	assert.Greater(t, res.Summary.Accuracy.Mean, 0.75)
	assert.Greater(t, res.Summary.ROCAUC.Mean, 0.8)
	assert.Greater(t, res.Summary.PRAUC.Mean, 0.6)

	accuracies, err := data.ReadAccuracies(cfg.ResultsPath)
	require.NoError(t, err)
	assert.InDeltaSlice(t, res.Summary.Accuracy.Scores, accuracies, 1e-12)

	bundle, err := persistence.LoadModelBundle(cfg.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.FeatureColumns, bundle.Metadata.Features)
	assert.Equal(t, 5, bundle.Metadata.CVFolds)

	text := out.String()
	assert.Contains(t, text, "Accuracy list:")
	assert.Contains(t, text, "PR AUC mean:")
}

func TestTrainDeterministic(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	first, err := Train(context.Background(), cfg, TrainOptions{})
	require.NoError(t, err)

	cfg.Workers = 1
	second, err := Train(context.Background(), cfg, TrainOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Summary.Accuracy.Scores, second.Summary.Accuracy.Scores)
	assert.Equal(t, first.Summary.ROCAUC.Scores, second.Summary.ROCAUC.Scores)
}

func TestTrainMissingDataWritesNothing(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root).WithFolds(5).WithDataPath(filepath.Join(root, "absent.csv"))

	var out bytes.Buffer
	res, err := Train(context.Background(), cfg, TrainOptions{Out: &out})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, data.ErrDataNotFound)
	assert.True(t, Aborted(err))
	assert.Contains(t, out.String(), "Data file not found")

	for _, p := range []string{cfg.ArtifactsDir, cfg.ReportsDir, cfg.FiguresDir} {
		_, statErr := os.Stat(p)
		assert.True(t, os.IsNotExist(statErr), "%s should not exist", p)
	}
}

func TestTrainAbortedJobHistory(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default(root).WithDataPath(filepath.Join(root, "absent.csv"))
	job := jobs.NewJob("train")

	_, err := Train(context.Background(), cfg, TrainOptions{Job: job})
	require.Error(t, err)
	assert.Equal(t, []jobs.Stage{jobs.StageLoad, jobs.StageAborted}, job.History())
	assert.Equal(t, jobs.JobAborted, job.GetStatus())
}

func TestTrainTooManyFolds(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root).WithFolds(500)

	_, err := Train(context.Background(), cfg, TrainOptions{})
	require.Error(t, err)
	assert.False(t, Aborted(err))
	_, statErr := os.Stat(cfg.ModelPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTrainCancelled(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, cfg, TrainOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateAfterTrain(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	_, err := Train(context.Background(), cfg, TrainOptions{})
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := Evaluate(context.Background(), cfg, EvaluateOptions{Out: &out})
	require.NoError(t, err)

	assert.Equal(t, []jobs.Stage{
		jobs.StageLoadArtifact, jobs.StageLoadData, jobs.StageSplit, jobs.StagePredict,
		jobs.StageReportMetrics, jobs.StageRenderFigure, jobs.StageDone,
	}, res.Job.History())
	assert.Len(t, res.Predictions, 200)
	assert.Greater(t, res.Metrics.Accuracy, 0.75)
	assert.Contains(t, out.String(), "not potable")

	assert.Equal(t, filepath.Join(cfg.FiguresDir, "confusion_matrix.png"), res.FigurePath)
	f, err := os.Open(res.FigurePath)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)

	total := 0
	for _, row := range res.FigureMatrix {
		for _, v := range row {
			total += v
		}
	}
	assert.Equal(t, 200, total)
}

func TestEvaluateMissingArtifact(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	_, err := Evaluate(context.Background(), cfg, EvaluateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrArtifactNotFound)
	assert.False(t, Aborted(err), "a missing artifact is fatal")

	_, statErr := os.Stat(cfg.FiguresDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEvaluateMissingData(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	_, err := Train(context.Background(), cfg, TrainOptions{})
	require.NoError(t, err)

	figures := filepath.Join(root, "other-figures")
	job := jobs.NewJob("evaluate")
	_, err = Evaluate(context.Background(), cfg.WithDataPath(filepath.Join(root, "absent.csv")), EvaluateOptions{
		FiguresDir: figures,
		Job:        job,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, data.ErrDataNotFound)
	assert.True(t, Aborted(err))
	assert.Equal(t, []jobs.Stage{jobs.StageLoadArtifact, jobs.StageLoadData, jobs.StageAborted}, job.History())

	_, statErr := os.Stat(figures)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEvaluateFeatureMismatch(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	_, err := Train(context.Background(), cfg, TrainOptions{})
	require.NoError(t, err)

	other := cfg
	other.FeatureColumns = []string{"ph", "Sulfate"}
	_, err = Evaluate(context.Background(), other, EvaluateOptions{})
	assert.Error(t, err)
}
