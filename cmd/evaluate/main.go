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
		Use:           "evaluate",
		Short:         "Report metrics and render the confusion matrix of a saved model",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runEvaluate,
	}

	cmd.Flags().String("model", "", "Path to the model artifact (default from config)")
	cmd.Flags().String("data", "", "Path to the water quality CSV (default from config)")
	cmd.Flags().String("out", "", "Directory for figures (default from config)")
	cmd.Flags().String("config", "", "Optional YAML configuration file")
	cmd.Flags().String("root", ".", "Project root the default layout is resolved against")
	cmd.Flags().String("log-level", "info", "Log level (debug|info|warn|error)")
	return cmd
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
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

	modelPath, _ := cmd.Flags().GetString("model")
	figuresDir, _ := cmd.Flags().GetString("out")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	manager := jobs.NewManager()
	job := manager.CreateJob("evaluate")
	_, err = experiment.Evaluate(ctx, cfg, experiment.EvaluateOptions{
		ModelPath:  modelPath,
		FiguresDir: figuresDir,
		Out:        os.Stdout,
		Job:        job,
	})
	logJob(manager, job.ID)
	if err != nil {
		if experiment.Aborted(err) {
			return nil
		}
		log.Error().Err(err).Msg("evaluation failed")
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
		Strs("logs", s.Logs).Dur("elapsed", s.Duration).Msg("evaluation job")
}
