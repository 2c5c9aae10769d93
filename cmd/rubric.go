package cmd

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/cache"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/rubric"
)

var rubricCmd = &cobra.Command{
	Use:   "rubric",
	Short: "Parse a rubric and print its scoring schema as JSON",
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd, rubricFlagKeys)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		parseRubric(cmd)
	},
}

var rubricFlagKeys = map[string]string{
	"rubric":    "rubric",
	"cache-dir": "cache-dir",
	"provider":  "ai.provider",
}

func init() {
	rootCmd.AddCommand(rubricCmd)

	rubricCmd.Flags().String("rubric", "", "scoring rubric file")
	rubricCmd.Flags().String("cache-dir", "", "cache directory (default is .cache)")
	rubricCmd.Flags().String("provider", "", "language model provider: openai or gemini")
}

func rubricParser(generator ai.Generator, store *cache.Store, cfg *AIConfig, log *zap.Logger) *rubric.Parser {
	return rubric.NewParser(generator, store, cfg.rubricConfig(), log)
}

func parseRubric(cmd *cobra.Command) {
	ctx := context.Background()

	appLogger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer appLogger.Sync()

	config, err := getConfig()
	if err != nil {
		appLogger.Fatal("getting a config", zap.Error(err))
	}
	if err := config.ValidateRubric(); err != nil {
		appLogger.Fatal("validating a config", zap.Error(err))
	}

	text, err := os.ReadFile(config.Rubric)
	if err != nil {
		appLogger.Fatal("reading the rubric", zap.Error(err))
	}
	store, err := cache.New(config.CacheDir)
	if err != nil {
		appLogger.Fatal("creating the cache", zap.Error(err))
	}
	generator, err := newGenerator(ctx, config.AI)
	if err != nil {
		appLogger.Fatal("creating the language model client", zap.Error(err))
	}

	schema, err := rubricParser(generator, store, config.AI, appLogger).Parse(ctx, string(text))
	if err != nil {
		appLogger.Fatal("parsing the rubric", zap.Error(err))
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(schema); err != nil {
		appLogger.Fatal("printing the rubric schema", zap.Error(err))
	}
	if !schema.OK() {
		appLogger.Warn("rubric could not be parsed", zap.String("error", schema.Error))
	}
}
