package experiment

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/config"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/data"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/evaluation"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/jobs"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/persistence"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/report"
)

type EvaluateOptions struct {
	ModelPath  string
	FiguresDir string
	Out        io.Writer
	Job        *jobs.Job
}

type EvaluateResult struct {
	Job         *jobs.Job
	Bundle      *persistence.ModelBundle
	Predictions []int
	Metrics     *evaluation.ClassificationMetrics
	// FigureMatrix comes from the visualizer's own refit on the evaluation
	// data, not from Predictions.
	FigureMatrix [][]int
	FigurePath   string
}

// Evaluate loads a persisted pipeline, reports its metrics on the dataset at
// cfg.DataPath and writes the confusion-matrix figure. A missing artifact is
// fatal (persistence.ErrArtifactNotFound); a missing data file aborts before
// anything is rendered (data.ErrDataNotFound).
func Evaluate(ctx context.Context, cfg config.Config, opts EvaluateOptions) (*EvaluateResult, error) {
	job := opts.Job
	if job == nil {
		job = jobs.NewJob("evaluate")
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	modelPath := opts.ModelPath
	if modelPath == "" {
		modelPath = cfg.ModelPath
	}
	figuresDir := opts.FiguresDir
	if figuresDir == "" {
		figuresDir = cfg.FiguresDir
	}
	printer := report.NewPrinter(out)
	logger := log.With().Str("job", job.ID).Str("type", job.Type).Logger()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job.Enter(jobs.StageLoadArtifact)
	printer.Printf("Loading model from: %s\n", modelPath)
	pipeline, bundle, err := persistence.LoadPipeline(modelPath)
	if err != nil {
		logger.Error().Err(err).Str("path", modelPath).Msg("cannot load artifact")
		return nil, fail(job, jobs.StageLoadArtifact, err)
	}
	if len(bundle.Metadata.Features) > 0 && !slices.Equal(bundle.Metadata.Features, cfg.FeatureColumns) {
		err := errors.Errorf("artifact was trained on features %v, configuration lists %v", bundle.Metadata.Features, cfg.FeatureColumns)
		return nil, fail(job, jobs.StageLoadArtifact, err)
	}

	job.AddLog("loaded artifact " + bundle.RunID)

	job.Enter(jobs.StageLoadData)
	printer.Printf("Loading data from: %s\n", cfg.DataPath)
	table, err := data.LoadTable(cfg.DataPath)
	if err != nil {
		return nil, abortOnMissingData(job, printer, logger, cfg.DataPath, err)
	}

	job.Enter(jobs.StageSplit)
	X, y, err := data.SplitFeaturesTarget(table, cfg.FeatureColumns, cfg.TargetColumn)
	if err != nil {
		return nil, fail(job, jobs.StageSplit, err)
	}

	result := &EvaluateResult{Job: job, Bundle: bundle}

	job.Enter(jobs.StagePredict)
	result.Predictions, err = pipeline.Predict(X)
	if err != nil {
		return nil, fail(job, jobs.StagePredict, err)
	}

	job.Enter(jobs.StageReportMetrics)
	classes := pipeline.GetClasses()
	result.Metrics, err = evaluation.CalculateMetrics(y, result.Predictions, classes)
	if err != nil {
		return nil, fail(job, jobs.StageReportMetrics, err)
	}
	printer.PrintClassificationReport(result.Metrics)
	job.AddLog(fmt.Sprintf("accuracy %.4f on %d rows", result.Metrics.Accuracy, len(y)))

	job.Enter(jobs.StageRenderFigure)
	figurePath := filepath.Join(figuresDir, report.ConfusionMatrixFile)
	printer.Printf("Rendering confusion matrix to %s...\n", figurePath)

	labels := make([]string, len(classes))
	for i, class := range classes {
		labels[i] = report.ClassNames[class]
	}
	cm := report.NewConfusionMatrix(pipeline, classes, labels)
	if err := cm.Fit(X, y); err != nil {
		return nil, fail(job, jobs.StageRenderFigure, err)
	}
	if _, err := cm.Score(X, y); err != nil {
		return nil, fail(job, jobs.StageRenderFigure, err)
	}
	if err := cm.Save(figurePath); err != nil {
		return nil, fail(job, jobs.StageRenderFigure, err)
	}
	result.FigureMatrix = cm.Matrix()
	result.FigurePath = figurePath
	printer.Success("Evaluation finished, figures saved.")

	job.Enter(jobs.StageDone)
	logger.Info().Float64("accuracy", result.Metrics.Accuracy).Str("figure", figurePath).Msg("evaluation finished")
	return result, nil
}
