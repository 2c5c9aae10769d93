package rubric

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/cache"
	"github.com/spigell/resume-screener/internal/fingerprint"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var systemPrompt string

const defaultMaxLogLength = 200

// Config holds the rubric parser settings.
type Config struct {
	// Model overrides the generator's default model for rubric parsing.
	Model        string
	MaxLogLength int
}

// Parser turns free-form rubric text into a Schema, caching results by
// rubric fingerprint.
type Parser struct {
	generator ai.Generator
	store     *cache.Store
	cfg       Config
	logger    *zap.Logger
}

func NewParser(generator ai.Generator, store *cache.Store, cfg Config, log *zap.Logger) *Parser {
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}

	return &Parser{
		generator: generator,
		store:     store,
		cfg:       cfg,
		logger:    logger.WithFields(log),
	}
}

type rawBand struct {
	MinPoints   any `mapstructure:"min_points"`
	MaxPoints   any `mapstructure:"max_points"`
	Description any `mapstructure:"description"`
}

type rawDimension struct {
	ID        any       `mapstructure:"id"`
	Title     any       `mapstructure:"title"`
	MaxPoints any       `mapstructure:"max_points"`
	Bands     []rawBand `mapstructure:"bands"`
}

type rawRubric struct {
	Dimensions []rawDimension `mapstructure:"dimensions"`
}

// Parse returns the schema for text. A cached schema is returned without
// calling the model. Model and decoding failures yield a schema with Error
// set and no dimensions; only cache I/O failures are returned as errors.
func (p *Parser) Parse(ctx context.Context, text string) (*Schema, error) {
	fp := fingerprint.ShortText(text)
	path := p.store.RubricPath(fp)
	log := p.logger.With(zap.String("rubric_fingerprint", fp))

	cached := &Schema{}
	found, err := p.store.Load(path, cached)
	if err != nil {
		return nil, fmt.Errorf("load cached rubric: %w", err)
	}
	if found {
		cached.CacheHit = true
		cached.RubricFingerprint = fp
		log.Info("rubric loaded from cache",
			zap.Int("dimensions", len(cached.Dimensions)),
			zap.Int("total_max_points", cached.TotalMaxPoints),
		)
		return cached, nil
	}

	schema, err := p.parse(ctx, text, log)
	if err != nil {
		log.Warn("rubric parsing failed, scoring will run without dimensions", zap.Error(err))
		return &Schema{
			Dimensions:        []Dimension{},
			RubricFingerprint: fp,
			Error:             err.Error(),
		}, nil
	}
	schema.RubricFingerprint = fp

	if err := p.store.Save(path, schema); err != nil {
		return nil, fmt.Errorf("save rubric: %w", err)
	}

	log.Info("rubric parsed",
		zap.Int("dimensions", len(schema.Dimensions)),
		zap.Int("total_max_points", schema.TotalMaxPoints),
	)

	return schema, nil
}

func (p *Parser) parse(ctx context.Context, text string, log *zap.Logger) (*Schema, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("rubric text is empty")
	}
	if p.generator == nil {
		return nil, errors.New("no language model configured")
	}

	prompt := fmt.Sprintf("Rubric text:\n\n%s\n\nReturn only JSON.", text)
	log = log.With(logger.CommonFields(p.generator.Provider(), p.model())...)

	log.Debug("rubric parse request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.Preview(prompt, p.cfg.MaxLogLength)),
	)

	obj, raw, err := ai.GenerateObject(ctx, p.generator, ai.Request{
		Model:  p.cfg.Model,
		System: systemPrompt,
		Prompt: prompt,
	})
	if raw != "" {
		log.Debug("rubric parse response",
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.Preview(raw, p.cfg.MaxLogLength)),
		)
	}
	if err != nil {
		return nil, err
	}

	return decodeSchema(obj)
}

func (p *Parser) model() string {
	if p.cfg.Model != "" {
		return p.cfg.Model
	}
	return p.generator.Model()
}

func decodeSchema(obj map[string]any) (*Schema, error) {
	var raw rawRubric
	if err := mapstructure.Decode(obj, &raw); err != nil {
		return nil, fmt.Errorf("decode rubric dimensions: %w", err)
	}
	if len(raw.Dimensions) == 0 {
		return nil, errors.New("model returned no rubric dimensions")
	}

	schema := &Schema{Dimensions: make([]Dimension, 0, len(raw.Dimensions))}
	for i, rd := range raw.Dimensions {
		id := ai.CoerceString(rd.ID)
		if id == "" {
			id = positionalID(i)
		}
		title := ai.CoerceString(rd.Title)

		dim := Dimension{
			ID:        id,
			Title:     title,
			Key:       Slugify(title),
			MaxPoints: ai.CoerceInt(rd.MaxPoints),
			Bands:     make([]Band, 0, len(rd.Bands)),
		}
		for _, rb := range rd.Bands {
			dim.Bands = append(dim.Bands, Band{
				MinPoints:   ai.CoerceInt(rb.MinPoints),
				MaxPoints:   ai.CoerceInt(rb.MaxPoints),
				Description: ai.CoerceString(rb.Description),
			})
		}
		schema.Dimensions = append(schema.Dimensions, dim)
	}
	schema.TotalMaxPoints = schema.sumMaxPoints()

	return schema, nil
}
