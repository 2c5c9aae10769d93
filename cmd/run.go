package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/cache"
	"github.com/spigell/resume-screener/internal/ingest"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/pipeline"
	"github.com/spigell/resume-screener/internal/ranking"
	"github.com/spigell/resume-screener/internal/report"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	topToLog = 5
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest, shortlist, score and rank resumes",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, runFlagKeys)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

// runFlagKeys maps flag names to config keys.
var runFlagKeys = map[string]string{
	"resumes":   "resumes",
	"jd":        "jd",
	"rubric":    "rubric",
	"out":       "out",
	"cache-dir": "cache-dir",
	"k":         "k",
	"percent":   "percent",
	"workers":   "workers",
	"provider":  "ai.provider",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("resumes", "", "directory with resumes (pdf, docx, txt)")
	runCmd.Flags().String("jd", "", "job description file")
	runCmd.Flags().String("rubric", "", "scoring rubric file")
	runCmd.Flags().String("out", "", "output directory for results.csv and details.jsonl")
	runCmd.Flags().String("cache-dir", "", "cache directory (default is .cache)")
	runCmd.Flags().Int("k", 0, "shortlist size")
	runCmd.Flags().Float64("percent", 0, "shortlist size as a percent of ingested resumes")
	runCmd.Flags().Int("workers", 0, "number of resumes scored concurrently")
	runCmd.Flags().String("provider", "", "language model provider: openai or gemini")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before scoring")
}

// bindFlags binds only the flags of the executing command so commands sharing
// a flag name do not override each other.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	appLogger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		RunID: uuid.NewString(),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer appLogger.Sync()

	config, err := getConfig()
	if err != nil {
		appLogger.Fatal("getting a config", zap.Error(err))
	}
	if err := config.Validate(); err != nil {
		appLogger.Fatal("validating a config", zap.Error(err))
	}

	appLogger.Info("starting the resume-screener", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	appLogger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if err := requireDir(config.Resumes); err != nil {
		appLogger.Fatal("checking the resumes directory", zap.Error(err))
	}
	jd, err := os.ReadFile(config.JD)
	if err != nil {
		appLogger.Fatal("reading the job description", zap.Error(err))
	}
	rubricText, err := os.ReadFile(config.Rubric)
	if err != nil {
		appLogger.Fatal("reading the rubric", zap.Error(err))
	}

	store, err := cache.New(config.CacheDir)
	if err != nil {
		appLogger.Fatal("creating the cache", zap.Error(err))
	}
	writer, err := report.NewWriter(config.Out)
	if err != nil {
		appLogger.Fatal("creating the output directory", zap.Error(err))
	}

	generator, err := newGenerator(ctx, config.AI)
	if err != nil {
		appLogger.Fatal("creating the language model client", zap.Error(err))
	}
	appLogger.Info("language model configured", logger.CommonFields(generator.Provider(), generator.Model())...)

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

	p := pipeline.New(pipeline.Deps{
		Ingestor:  ingest.New(appLogger),
		Rubrics:   rubricParser(generator, store, config.AI, appLogger),
		Generator: generator,
		Store:     store,
		Scoring:   config.AI.scoringConfig(),
		Details:   writer,
		Logger:    appLogger,
	}, pipeline.Config{
		Workers: config.Workers,
		Confirm: func(plan pipeline.Plan) bool {
			return autoApprove || confirmPlan(plan)
		},
	})

	result, err := p.Run(ctx, pipeline.Input{
		ResumesDir:       config.Resumes,
		JobDescription:   string(jd),
		Rubric:           string(rubricText),
		ShortlistSize:    config.K,
		ShortlistPercent: config.Percent,
	})
	switch {
	case errors.Is(err, pipeline.ErrDeclined):
		appLogger.Info("exiting without scoring")
		return
	case errors.Is(err, context.Canceled):
		appLogger.Warn("run interrupted, scored resumes are cached and will be reused")
		return
	case err != nil:
		appLogger.Fatal("running the pipeline", zap.Error(err))
	}

	if !result.Rubric.OK() {
		appLogger.Warn("rubric could not be parsed, dimension scores are empty",
			zap.String("error", result.Rubric.Error),
		)
	}

	if err := writer.WriteCSV(result.Ranked, result.Rubric.Dimensions); err != nil {
		appLogger.Fatal("writing results", zap.Error(err))
	}

	for _, r := range result.Ranked[:min(topToLog, len(result.Ranked))] {
		appLogger.Info("ranked", logger.RankedFields(r.Rank, r.Filename, r.FinalScore)...)
	}

	summary := ranking.Summarize(result.Ranked)
	appLogger.Info("summary",
		zap.Int("scored", summary.Count),
		zap.Float64("average_score", summary.Average),
		zap.Float64("top_score", summary.Top),
		zap.Float64("bottom_score", summary.Bottom),
	)

	appLogger.Info("done",
		zap.Int("ranked", len(result.Ranked)),
		zap.String("results", writer.ResultsPath()),
		zap.String("details", writer.DetailsPath()),
	)
}

func confirmPlan(plan pipeline.Plan) bool {
	if plan.ToScore() == 0 {
		return true
	}

	prompt := promptui.Select{
		Label: fmt.Sprintf("Score %d resumes (%d cached, %d model calls)?", plan.Shortlisted, plan.Cached, plan.ToScore()),
		Items: []string{PromptYes, PromptNo},
	}
	_, action, err := prompt.Run()
	if err != nil {
		return false
	}
	return action == PromptYes
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
