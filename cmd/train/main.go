package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/config"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/experiment"
	"github.com/CaiqueSil/Linear-SVM-for-water-potability-analysis/internal/jobs"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Cross-validate and fit the water potability classifier",
		Long: `Loads the water quality CSV, ranks the features with an ANOVA F-test,
scores a median-impute / standardize / linear SVM pipeline with stratified
K-fold cross-validation, then fits it on the full dataset and saves the
artifact and the per-fold accuracies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTrain,
	}

	cmd.Flags().String("data", "", "Path to the water quality CSV (default from config)")
	cmd.Flags().Int("k", config.DefaultFolds, "Number of stratified folds")
	cmd.Flags().Int64("seed", config.DefaultSeed, "Random seed for fold shuffling and the solver")
	cmd.Flags().String("out", "reports", "Output directory (accepted but unused; paths come from config)")
	cmd.Flags().String("config", "", "Optional YAML configuration file")
	cmd.Flags().String("root", ".", "Project root the default layout is resolved against")
	cmd.Flags().String("log-level", "info", "Log level (debug|info|warn|error)")
	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	configPath, _ := cmd.Flags().GetString("config")
	root, _ := cmd.Flags().GetString("root")
	cfg, err := config.Load(configPath, root)
	if err != nil {
		log.Error().Err(err).Msg("cannot load configuration")
		return err
	}

	if cmd.Flags().Changed("data") {
		dataPath, _ := cmd.Flags().GetString("data")
		cfg = cfg.WithDataPath(dataPath)
	}
	if cmd.Flags().Changed("k") {
		k, _ := cmd.Flags().GetInt("k")
		cfg = cfg.WithFolds(k)
	}
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		cfg = cfg.WithSeed(seed)
	}
	outDir, _ := cmd.Flags().GetString("out")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	manager := jobs.NewManager()
	job := manager.CreateJob("train")
	log.Info().Str("job", job.ID).Str("data", cfg.DataPath).Int("folds", cfg.Folds).Int64("seed", cfg.Seed).Msg("starting training")
	_, err = experiment.Train(ctx, cfg, experiment.TrainOptions{
		OutputDir: outDir,
		Out:       os.Stdout,
		Job:       job,
	})
	logJob(manager, job.ID)
	if err != nil {
		// A missing data file was already reported and nothing was written.
		if experiment.Aborted(err) {
			return nil
		}
		log.Error().Err(err).Msg("training failed")
		return err
	}
	return nil
}

func logJob(manager *jobs.Manager, id string) {
	s, ok := manager.Summary(id)
	if !ok {
		return
	}
	history := make([]string, len(s.History))
	for i, stage := range s.History {
		history[i] = string(stage)
	}
	log.Debug().Str("job", s.ID).Str("status", string(s.Status)).Strs("history", history).
		Strs("logs", s.Logs).Dur("elapsed", s.Duration).Msg("training job")
}
