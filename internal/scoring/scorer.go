// Package scoring scores shortlisted resumes against a parsed rubric with a
// language model and caches the results by content.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/cache"
	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/contacts"
	"github.com/spigell/resume-screener/internal/fingerprint"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/rubric"
	"github.com/spigell/resume-screener/internal/utils"
	"go.uber.org/zap"
)

const (
	// DefaultSchemaVersion tags the current prompt and output contract.
	// Changing it makes every existing score cache entry unreachable.
	DefaultSchemaVersion  = "v1"
	DefaultMaxResumeChars = 5000
	defaultMaxLogLength   = 200
)

// Config holds the scorer settings.
type Config struct {
	// Model overrides the generator's default model for scoring.
	Model          string
	MaxResumeChars int
	SchemaVersion  string
	MaxLogLength   int
}

// Scorer scores resumes against one rubric.
type Scorer struct {
	generator ai.Generator
	store     *cache.Store
	rubric    *rubric.Schema
	cfg       Config
	logger    *zap.Logger
}

func NewScorer(generator ai.Generator, store *cache.Store, schema *rubric.Schema, cfg Config, log *zap.Logger) *Scorer {
	if cfg.MaxResumeChars <= 0 {
		cfg.MaxResumeChars = DefaultMaxResumeChars
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = DefaultSchemaVersion
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if schema == nil {
		schema = &rubric.Schema{Dimensions: []rubric.Dimension{}, Error: "rubric is not configured"}
	}

	return &Scorer{
		generator: generator,
		store:     store,
		rubric:    schema,
		cfg:       cfg,
		logger:    logger.WithFields(log),
	}
}

// SchemaVersion returns the schema version the scorer writes cache entries under.
func (s *Scorer) SchemaVersion() string {
	return s.cfg.SchemaVersion
}

func (s *Scorer) meta(rec candidate.Record, jd string) candidate.CacheMeta {
	return candidate.CacheMeta{
		JDFingerprint:     fingerprint.ShortText(jd),
		ResumeFingerprint: rec.Fingerprint,
		SchemaVersion:     s.cfg.SchemaVersion,
		RubricFingerprint: s.rubric.RubricFingerprint,
	}
}

func (s *Scorer) cachePath(meta candidate.CacheMeta) string {
	return s.store.ScorePath(meta.JDFingerprint, meta.RubricFingerprint, meta.SchemaVersion, meta.ResumeFingerprint)
}

// Cached reports whether a score for rec and jd is already stored.
func (s *Scorer) Cached(rec candidate.Record, jd string) (bool, error) {
	if !s.rubric.OK() {
		return false, nil
	}
	return s.store.Exists(s.cachePath(s.meta(rec, jd)))
}

// Score returns the scored record for rec against jd. Model and decoding
// failures produce a zero-scored record with the error in its rationale.
// Cache I/O errors and context cancellation are returned.
func (s *Scorer) Score(ctx context.Context, rec candidate.Record, jd string) (candidate.Scored, error) {
	meta := s.meta(rec, jd)
	path := s.cachePath(meta)
	log := s.logger.With(logger.ResumeFields(rec.Filename, rec.Fingerprint)...)
	cacheable := s.rubric.OK()

	if cacheable {
		var cached candidate.Scored
		found, err := s.store.Load(path, &cached)
		if err != nil {
			return candidate.Scored{}, fmt.Errorf("load cached score for %s: %w", rec.Filename, err)
		}
		if found {
			cached.CacheHit = true
			cached.Filename = rec.Filename
			cached.PrefilterScore = rec.PrefilterScore
			log.Info("resume score loaded from cache", totalField(cached.TotalScore))
			return cached, nil
		}
	}

	scored, err := s.score(ctx, rec, jd, log)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return candidate.Scored{}, ctxErr
		}
		log.Warn("resume scoring failed, using fallback record", zap.Error(err))
		scored = fallback(rec, err)
		cacheable = false
	}

	scored.CacheMeta = meta
	scored.Filename = rec.Filename
	scored.PrefilterScore = rec.PrefilterScore

	if cacheable {
		if err := s.store.Save(path, scored); err != nil {
			return candidate.Scored{}, fmt.Errorf("save score for %s: %w", rec.Filename, err)
		}
	}

	log.Info("resume scored", totalField(scored.TotalScore), zap.Bool("cached", cacheable))
	return scored, nil
}

func (s *Scorer) score(ctx context.Context, rec candidate.Record, jd string, log *zap.Logger) (candidate.Scored, error) {
	if s.generator == nil {
		return candidate.Scored{}, errors.New("no language model configured")
	}

	bounded, detected := boundedResume(rec.Text, s.cfg.MaxResumeChars)
	prompt, err := buildPrompt(jd, rec.Filename, s.rubric, bounded)
	if err != nil {
		return candidate.Scored{}, err
	}

	model := s.cfg.Model
	if model == "" {
		model = s.generator.Model()
	}
	log = log.With(logger.CommonFields(s.generator.Provider(), model)...)
	log.Debug("score request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.Preview(prompt, s.cfg.MaxLogLength)),
	)

	obj, raw, err := ai.GenerateObject(ctx, s.generator, ai.Request{
		Model:  s.cfg.Model,
		System: systemPrompt,
		Prompt: prompt,
	})
	if raw != "" {
		log.Debug("score response",
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", utils.Preview(raw, s.cfg.MaxLogLength)),
		)
	}
	if err != nil {
		return candidate.Scored{}, err
	}

	return s.assemble(obj, rec, detected, log), nil
}

func (s *Scorer) assemble(obj map[string]any, rec candidate.Record, detected contacts.Detected, log *zap.Logger) candidate.Scored {
	dims, total := repairDimensions(obj, rec.Filename, s.rubric.Dimensions)

	violations, err := validate(BuildSchema(s.rubric.Dimensions), obj)
	if err != nil {
		log.Warn("schema validation unavailable", zap.Error(err))
	} else if len(violations) > 0 {
		log.Warn("model response does not match the output schema", zap.Strings("violations", violations))
	}

	profile, failures := decodeProfile(obj)
	for field, ferr := range failures {
		log.Warn("dropping malformed profile field", zap.String("field", field), zap.Error(ferr))
	}
	if profile.ResumeFileName == "" {
		profile.ResumeFileName = rec.Filename
	}
	contacts.Reconcile(&profile, detected)

	return candidate.Scored{
		Profile:    profile,
		Dimensions: dims,
		TotalScore: candidate.IntPtr(total),
		Rationale:  ai.CoerceString(obj["rationale"]),
		Evidence:   ai.CoerceStrings(obj["evidence"]),
	}
}

// fallback is the record kept for a resume whose scoring call failed.
func fallback(rec candidate.Record, err error) candidate.Scored {
	profile := candidate.Profile{ResumeFileName: rec.Filename}
	profile.EnsureLists()

	return candidate.Scored{
		Profile:    profile,
		Dimensions: []candidate.DimensionScore{},
		TotalScore: candidate.IntPtr(0),
		Rationale:  fmt.Sprintf("Error during scoring: %v", err),
		Evidence:   []string{},
	}
}

func totalField(total *int) zap.Field {
	if total == nil {
		return zap.Skip()
	}
	return zap.Int("total_score", *total)
}
