package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/ai/gemini"
	"github.com/spigell/resume-screener/internal/ai/openai"
	"github.com/spigell/resume-screener/internal/rubric"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/secrets"
)

type Config struct {
	Resumes  string    `mapstructure:"resumes" validate:"required"`
	JD       string    `mapstructure:"jd" validate:"required"`
	Rubric   string    `mapstructure:"rubric" validate:"required"`
	Out      string    `mapstructure:"out" validate:"required"`
	CacheDir string    `mapstructure:"cache-dir" validate:"required"`
	K        int       `mapstructure:"k" validate:"gte=0"`
	Percent  float64   `mapstructure:"percent" validate:"gte=0,lte=100"`
	Workers  int       `mapstructure:"workers" validate:"gte=0"`
	AI       *AIConfig `mapstructure:"ai" validate:"required"`
}

type AIConfig struct {
	Provider       string          `mapstructure:"provider" validate:"oneof=openai gemini"`
	ModelParse     string          `mapstructure:"model-parse"`
	ModelScore     string          `mapstructure:"model-score"`
	MaxResumeChars int             `mapstructure:"max-resume-chars" validate:"gte=0"`
	SchemaVersion  string          `mapstructure:"schema-version"`
	MaxLogLength   int             `mapstructure:"max-log-length" validate:"gte=0"`
	OpenAI         *ProviderConfig `mapstructure:"openai"`
	Gemini         *ProviderConfig `mapstructure:"gemini"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	// BaseURL is honored by the openai provider only.
	BaseURL string `mapstructure:"base-url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache-dir", ".cache")
	v.SetDefault("ai.provider", openai.ProviderName)
	v.SetDefault("ai.max-resume-chars", scoring.DefaultMaxResumeChars)
	v.SetDefault("ai.schema-version", scoring.DefaultSchemaVersion)
	v.SetDefault("ai.max-log-length", 200)
}

var validate = validator.New()

// Validate checks the settings the run command needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.K > 0 && c.Percent > 0 {
		return fmt.Errorf("invalid configuration: k and percent are mutually exclusive")
	}
	return nil
}

// ValidateRubric checks the subset of settings the rubric command needs.
func (c *Config) ValidateRubric() error {
	if err := validate.StructPartial(c, "Rubric", "CacheDir", "AI", "AI.Provider"); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))

	return config, nil
}

func (c *AIConfig) rubricConfig() rubric.Config {
	return rubric.Config{Model: c.ModelParse, MaxLogLength: c.MaxLogLength}
}

func (c *AIConfig) scoringConfig() scoring.Config {
	return scoring.Config{
		Model:          c.ModelScore,
		MaxResumeChars: c.MaxResumeChars,
		SchemaVersion:  c.SchemaVersion,
		MaxLogLength:   c.MaxLogLength,
	}
}

// newGenerator builds the configured language model backend. The scoring
// model is the backend default; rubric parsing overrides it per request.
func newGenerator(ctx context.Context, cfg *AIConfig) (ai.Generator, error) {
	switch cfg.Provider {
	case openai.ProviderName:
		pc := providerConfig(cfg.OpenAI)
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: pc.APIKey,
			File:  pc.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		generator, err := openai.NewGenerator(openai.Options{APIKey: apiKey, BaseURL: pc.BaseURL, Model: cfg.ModelScore})
		if err != nil {
			return nil, err
		}
		return generator, nil
	case gemini.ProviderName:
		pc := providerConfig(cfg.Gemini)
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: pc.APIKey,
			File:  pc.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.ModelScore)
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %q", cfg.Provider)
	}
}

func providerConfig(pc *ProviderConfig) *ProviderConfig {
	if pc == nil {
		return &ProviderConfig{}
	}
	return pc
}
