// Package pipeline runs the screening stages: ingest, prefilter, score and rank.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/cache"
	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/ingest"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/prefilter"
	"github.com/spigell/resume-screener/internal/ranking"
	"github.com/spigell/resume-screener/internal/rubric"
	"github.com/spigell/resume-screener/internal/scoring"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDeclined is returned when the confirmation hook rejects the plan.
var ErrDeclined = errors.New("run declined before scoring")

// Step describes the result of executing a pipeline stage.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Plan summarizes the scoring work before any model call is made.
type Plan struct {
	Ingested    int
	Shortlisted int
	// Cached is the number of shortlisted resumes that already have a score.
	Cached  int
	Rubric  *rubric.Schema
	Workers int
}

// ToScore is the number of resumes that will need a model call.
func (p Plan) ToScore() int {
	return p.Shortlisted - p.Cached
}

// DetailsSink receives every scored record as soon as it is available.
type DetailsSink interface {
	AppendDetails(records ...candidate.Scored) error
}

// Deps aggregates the collaborators shared across all stages.
type Deps struct {
	Ingestor  *ingest.Ingestor
	Rubrics   *rubric.Parser
	Generator ai.Generator
	Store     *cache.Store
	Scoring   scoring.Config
	Details   DetailsSink
	Logger    *zap.Logger
}

// Config controls how the pipeline runs.
type Config struct {
	// Workers bounds concurrent scoring calls. Values below 1 mean sequential.
	Workers int
	// Confirm is called after shortlisting. Returning false stops the run.
	Confirm func(Plan) bool
}

// Input is one screening request.
type Input struct {
	// ResumesDir is read when Files is empty.
	ResumesDir       string
	Files            []ingest.File
	JobDescription   string
	Rubric           string
	ShortlistSize    int
	ShortlistPercent float64
}

// Result holds the output of every stage.
type Result struct {
	Rubric      *rubric.Schema
	Ingested    []candidate.Record
	Shortlisted []candidate.Record
	Scored      []candidate.Scored
	Ranked      []candidate.Ranked
}

type Pipeline struct {
	deps Deps
	cfg  Config
}

func New(deps Deps, cfg Config) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	deps.Logger = logger.WithFields(deps.Logger)
	if deps.Ingestor == nil {
		deps.Ingestor = ingest.New(deps.Logger)
	}
	return &Pipeline{deps: deps, cfg: cfg}
}

// Run executes the stages sequentially. Per-resume failures are contained in
// the records; setup, cache and sink errors abort the run.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	if p.deps.Store == nil {
		return nil, errors.New("cache store is required")
	}
	if p.deps.Rubrics == nil {
		return nil, errors.New("rubric parser is required")
	}

	result := &Result{}
	log := p.deps.Logger

	records, err := p.ingest(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	result.Ingested = records
	p.logStep("ingest", Step{Initial: len(records), Left: len(records)})

	schema, err := p.deps.Rubrics.Parse(ctx, in.Rubric)
	if err != nil {
		return nil, fmt.Errorf("rubric: %w", err)
	}
	result.Rubric = schema

	k := shortlistSize(len(records), in.ShortlistSize, in.ShortlistPercent)
	result.Shortlisted = prefilter.Shortlist(records, in.JobDescription, k)
	p.logStep("prefilter", Step{
		Initial: len(records),
		Dropped: len(records) - len(result.Shortlisted),
		Left:    len(result.Shortlisted),
	})

	scorer := scoring.NewScorer(p.deps.Generator, p.deps.Store, schema, p.deps.Scoring, log)

	plan := Plan{
		Ingested:    len(records),
		Shortlisted: len(result.Shortlisted),
		Rubric:      schema,
		Workers:     p.cfg.Workers,
	}
	for _, rec := range result.Shortlisted {
		cached, err := scorer.Cached(rec, in.JobDescription)
		if err != nil {
			return nil, fmt.Errorf("check score cache: %w", err)
		}
		if cached {
			plan.Cached++
		}
	}
	log.Info("scoring plan",
		zap.Int("shortlisted", plan.Shortlisted),
		zap.Int("cached", plan.Cached),
		zap.Int("to_score", plan.ToScore()),
	)
	if p.cfg.Confirm != nil && !p.cfg.Confirm(plan) {
		return result, ErrDeclined
	}

	scored, err := p.score(ctx, scorer, result.Shortlisted, in.JobDescription)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	result.Scored = scored
	p.logStep("score", Step{Initial: len(result.Shortlisted), Left: len(scored)})

	result.Ranked = ranking.Rank(scored)
	p.logStep("rank", Step{Initial: len(scored), Left: len(result.Ranked)})

	return result, nil
}

func (p *Pipeline) ingest(ctx context.Context, in Input) ([]candidate.Record, error) {
	if len(in.Files) > 0 {
		return p.deps.Ingestor.Files(ctx, in.Files)
	}
	if in.ResumesDir == "" {
		return nil, errors.New("no resumes provided")
	}
	return p.deps.Ingestor.Dir(ctx, in.ResumesDir)
}

// score runs the scorer over the shortlist with at most Workers calls in
// flight. Results keep shortlist order.
func (p *Pipeline) score(ctx context.Context, scorer *scoring.Scorer, shortlist []candidate.Record, jd string) ([]candidate.Scored, error) {
	results := make([]candidate.Scored, len(shortlist))
	var sinkMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, rec := range shortlist {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			scored, err := scorer.Score(gctx, rec, jd)
			if err != nil {
				return err
			}
			results[i] = scored

			if p.deps.Details != nil {
				sinkMu.Lock()
				defer sinkMu.Unlock()
				if err := p.deps.Details.AppendDetails(scored); err != nil {
					return fmt.Errorf("write details for %s: %w", rec.Filename, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func (p *Pipeline) logStep(name string, info Step) {
	p.deps.Logger.Info("pipeline step",
		zap.String("name", name),
		zap.Int("initial", info.Initial),
		zap.Int("dropped", info.Dropped),
		zap.Int("left", info.Left),
	)
}

// shortlistSize resolves the shortlist length. An explicit size wins over a
// percentage; neither means every resume is scored.
func shortlistSize(total, size int, percent float64) int {
	switch {
	case size > 0:
		return size
	case percent > 0:
		return prefilter.KFromPercent(total, percent)
	default:
		return total
	}
}
