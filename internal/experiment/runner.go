package experiment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/config"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/data"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/evaluation"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/features"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/jobs"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/models"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/persistence"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/preprocessing"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/report"
)

type TrainOptions struct {
	// OutputDir is accepted for command-line compatibility only; output
	// paths come from the configuration.
	OutputDir string
	Out       io.Writer
	Job       *jobs.Job
}

type TrainResult struct {
	Job         *jobs.Job
	Ranking     []features.Score
	Summary     report.TrainingSummary
	Bundle      *persistence.ModelBundle
	ModelPath   string
	ResultsPath string
}

// Train cross-validates the potability pipeline, fits it on the whole
// dataset and persists the artifact and per-fold accuracies. A missing data
// file aborts the run before anything is written and returns an error
// wrapping data.ErrDataNotFound.
func Train(ctx context.Context, cfg config.Config, opts TrainOptions) (*TrainResult, error) {
	job := opts.Job
	if job == nil {
		job = jobs.NewJob("train")
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	printer := report.NewPrinter(out)
	logger := log.With().Str("job", job.ID).Str("type", job.Type).Logger()

	if err := cfg.Validate(); err != nil {
		job.SetError(err)
		return nil, err
	}
	if opts.OutputDir != "" {
		logger.Debug().Str("out", opts.OutputDir).Msg("output directory flag ignored, paths come from configuration")
	}

	job.Enter(jobs.StageLoad)
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
	if err := data.NewDataValidator().ValidateDataset(X, y); err != nil {
		return nil, fail(job, jobs.StageSplit, err)
	}
	counts := data.ClassCounts(y)
	logger.Info().Int("rows", len(X)).Int("negatives", counts[0]).Int("positives", counts[1]).Msg("dataset split")
	job.AddLog(fmt.Sprintf("loaded %d rows from %s", len(X), cfg.DataPath))

	result := &TrainResult{Job: job}

	job.Enter(jobs.StageRank)
	result.Ranking = rankFeatures(X, y, cfg.FeatureColumns, printer, logger)
	if len(result.Ranking) > 0 {
		job.AddLog("top feature: " + result.Ranking[0].Feature)
	}

	job.Enter(jobs.StageBuildPipeline)
	pipeline, err := models.NewPipeline(models.ConfigFrom(cfg))
	if err != nil {
		return nil, fail(job, jobs.StageBuildPipeline, err)
	}
	cv := evaluation.NewCrossValidator(evaluation.NewStratifiedKFold(cfg.Folds, true, cfg.Seed), cfg.Workers)
	printer.Printf("Starting stratified cross-validation (%d folds)...\n", cfg.Folds)

	job.Enter(jobs.StageCVAccuracy)
	accuracy, err := cv.Score(ctx, pipeline, X, y, evaluation.ScoringAccuracy)
	if err != nil {
		return nil, fail(job, jobs.StageCVAccuracy, err)
	}

	job.Enter(jobs.StageFitFinal)
	if err := pipeline.Fit(X, y); err != nil {
		return nil, fail(job, jobs.StageFitFinal, err)
	}
	job.AddLog(fmt.Sprintf("final fit: %d epochs, converged=%t", pipeline.Classifier.NIter, pipeline.Classifier.Converged))
	logger.Info().Int("n_iter", pipeline.Classifier.NIter).Bool("converged", pipeline.Classifier.Converged).Msg("final model fitted")

	job.Enter(jobs.StageCVROCAUC)
	rocAUC, err := cv.Score(ctx, pipeline, X, y, evaluation.ScoringROCAUC)
	if err != nil {
		return nil, fail(job, jobs.StageCVROCAUC, err)
	}

	job.Enter(jobs.StageCVPRAUC)
	prAUC, err := cv.Score(ctx, pipeline, X, y, evaluation.ScoringAveragePrecision)
	if err != nil {
		return nil, fail(job, jobs.StageCVPRAUC, err)
	}

	job.Enter(jobs.StageReport)
	summary := report.TrainingSummary{Folds: cfg.Folds}
	if summary.Accuracy, err = evaluation.Summarize(accuracy); err != nil {
		return nil, fail(job, jobs.StageReport, err)
	}
	if summary.ROCAUC, err = evaluation.Summarize(rocAUC); err != nil {
		return nil, fail(job, jobs.StageReport, err)
	}
	if summary.PRAUC, err = evaluation.Summarize(prAUC); err != nil {
		return nil, fail(job, jobs.StageReport, err)
	}
	result.Summary = summary
	printer.PrintTrainingSummary(summary)

	job.Enter(jobs.StagePersist)
	for _, dir := range []string{cfg.ArtifactsDir, cfg.ReportsDir, filepath.Dir(cfg.ModelPath), filepath.Dir(cfg.ResultsPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fail(job, jobs.StagePersist, errors.Wrapf(err, "create %s", dir))
		}
	}
	if err := data.WriteAccuracies(cfg.ResultsPath, accuracy); err != nil {
		return nil, fail(job, jobs.StagePersist, err)
	}
	printer.Success("Accuracy results saved to: " + cfg.ResultsPath)

	bundle, err := persistence.SavePipeline(pipeline, cfg.FeatureColumns, persistence.BundleMetadata{
		Dataset: cfg.DataPath,
		CVFolds: cfg.Folds,
		CVMean:  summary.Accuracy.Mean,
	}, cfg.ModelPath)
	if err != nil {
		return nil, fail(job, jobs.StagePersist, err)
	}
	printer.Success("Artifact saved to: " + cfg.ModelPath)

	job.AddLog("saved artifact " + bundle.RunID)
	result.Bundle = bundle
	result.ModelPath = cfg.ModelPath
	result.ResultsPath = cfg.ResultsPath

	job.Enter(jobs.StageDone)
	logger.Info().Float64("mean_accuracy", summary.Accuracy.Mean).Dur("elapsed", job.Duration()).Msg("training finished")
	return result, nil
}

// rankFeatures prints the ANOVA ranking of the median-filled features. It
// never fails the run.
func rankFeatures(X [][]float64, y []int, names []string, printer *report.Printer, logger zerolog.Logger) []features.Score {
	filled, err := preprocessing.NewMedianImputer().FitTransform(X)
	if err != nil {
		logger.Warn().Err(err).Msg("skipping feature ranking")
		return nil
	}
	scores, err := features.RankANOVA(filled, y, names)
	if err != nil {
		logger.Warn().Err(err).Msg("skipping feature ranking")
		return nil
	}
	printer.PrintRanking(scores)
	return scores
}

// Aborted reports whether err is the handled missing-data outcome. The
// diagnostic has already been printed and nothing was written, so commands
// treat it as a normal exit.
func Aborted(err error) bool {
	return errors.Is(err, data.ErrDataNotFound)
}

func abortOnMissingData(job *jobs.Job, printer *report.Printer, logger zerolog.Logger, path string, err error) error {
	if Aborted(err) {
		logger.Error().Str("path", path).Msg("data file not found")
		printer.Error("Data file not found at " + path)
		job.Enter(jobs.StageAborted)
		return err
	}
	return fail(job, jobs.StageLoad, err)
}

func fail(job *jobs.Job, stage jobs.Stage, err error) error {
	err = errors.Wrapf(err, "%s", stage)
	job.SetError(err)
	return err
}
