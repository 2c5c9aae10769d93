package scoring

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/cache"
	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/contacts"
	"github.com/spigell/resume-screener/internal/fingerprint"
	"github.com/spigell/resume-screener/internal/rubric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	requests []ai.Request
}

func (s *stubGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.response, s.err
}

func (s *stubGenerator) Provider() string { return "stub" }

func (s *stubGenerator) Model() string { return "stub-model" }

func (s *stubGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func testRubric(text string) *rubric.Schema {
	return &rubric.Schema{
		Dimensions: []rubric.Dimension{
			{ID: "A", Title: "Projects", Key: "projects", MaxPoints: 30},
			{ID: "B", Title: "Communication", Key: "communication", MaxPoints: 20},
		},
		TotalMaxPoints:    50,
		RubricFingerprint: fingerprint.ShortText(text),
	}
}

const modelResponse = `{
  "resume_file_name": "",
  "applicant_name": "Jane Doe",
  "email": null,
  "phone": "",
  "graduation_year": "2019",
  "total_experience_years": 4.5,
  "key_roles": [{"title": "Backend Engineer", "company": "Acme", "start_year": 2020}],
  "linkedin_link": "in/jane-doe",
  "portfolio_github_links": ["https://github.com/jane/screener"],
  "A_projects_score": 999,
  "A_projects_reason": "Built payment systems",
  "B_communication_score": "12",
  "B_communication_reason": "Clear summary",
  "total_score": 1011,
  "rationale": "Strong backend profile",
  "evidence": ["Built payment systems at Acme"]
}`

const resumeText = "Jane Doe\njane@example.com +91 98765 43210\nlinkedin.com/in/jane-doe github/jane"

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func testRecord() candidate.Record {
	return candidate.Record{
		Filename:       "jane.pdf",
		Fingerprint:    fingerprint.ShortText(resumeText),
		Text:           resumeText,
		PrefilterScore: 0.42,
	}
}

func TestScoreClampsAndRecomputesTotal(t *testing.T) {
	gen := &stubGenerator{response: modelResponse}
	scorer := NewScorer(gen, newStore(t), testRubric("rubric"), Config{}, zap.NewNop())

	scored, err := scorer.Score(context.Background(), testRecord(), "Go engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := scored.Dimension("A")
	b, _ := scored.Dimension("B")
	if a.Score != 30 || a.Reason != "Built payment systems" {
		t.Fatalf("expected A clamped to 30, got %+v", a)
	}
	if b.Score != 12 {
		t.Fatalf("expected B coerced to 12, got %+v", b)
	}
	if scored.TotalScore == nil || *scored.TotalScore != 42 {
		t.Fatalf("expected total recomputed to 42, got %v", scored.TotalScore)
	}

	if scored.ResumeFileName != "jane.pdf" || scored.Filename != "jane.pdf" {
		t.Fatalf("expected filename backfill, got %q / %q", scored.ResumeFileName, scored.Filename)
	}
	if scored.ApplicantName == nil || *scored.ApplicantName != "Jane Doe" {
		t.Fatalf("unexpected applicant name: %v", scored.ApplicantName)
	}
	if scored.GraduationYear == nil || *scored.GraduationYear != 2019 {
		t.Fatalf("expected weakly typed graduation year, got %v", scored.GraduationYear)
	}
	if scored.Email == nil || *scored.Email != "jane@example.com" {
		t.Fatalf("expected detected email backfill, got %v", scored.Email)
	}
	if scored.LinkedinLink == nil || *scored.LinkedinLink != "https://www.linkedin.com/in/jane-doe" {
		t.Fatalf("expected canonical linkedin, got %v", scored.LinkedinLink)
	}
	wantLinks := []string{"https://github.com/jane", "https://github.com/jane/screener"}
	if !reflect.DeepEqual(scored.PortfolioGithubLinks, wantLinks) {
		t.Fatalf("expected links %v, got %v", wantLinks, scored.PortfolioGithubLinks)
	}
	if len(scored.KeyRoles) != 1 || *scored.KeyRoles[0].Company != "Acme" {
		t.Fatalf("unexpected roles: %+v", scored.KeyRoles)
	}
	if scored.Achievements == nil || len(scored.Achievements) != 0 {
		t.Fatalf("expected empty achievements list, got %#v", scored.Achievements)
	}
	if scored.PrefilterScore != 0.42 {
		t.Fatalf("expected prefilter score to be carried, got %f", scored.PrefilterScore)
	}
	if scored.JDFingerprint != fingerprint.ShortText("Go engineer") || scored.SchemaVersion != DefaultSchemaVersion {
		t.Fatalf("unexpected cache meta: %+v", scored.CacheMeta)
	}
}

func TestScoreCacheRoundTrip(t *testing.T) {
	gen := &stubGenerator{response: modelResponse}
	scorer := NewScorer(gen, newStore(t), testRubric("rubric"), Config{}, zap.NewNop())
	rec := testRecord()

	if cached, err := scorer.Cached(rec, "jd"); err != nil || cached {
		t.Fatalf("expected no cache entry yet, got %v %v", cached, err)
	}

	first, err := scorer.Score(context.Background(), rec, "jd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.CacheHit {
		t.Fatalf("first score must not be a cache hit")
	}

	if cached, err := scorer.Cached(rec, "jd"); err != nil || !cached {
		t.Fatalf("expected cache entry, got %v %v", cached, err)
	}

	rec.Filename = "renamed.pdf"
	rec.PrefilterScore = 0.9
	second, err := scorer.Score(context.Background(), rec, "jd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.CacheHit {
		t.Fatalf("second score must be a cache hit")
	}
	if gen.calls() != 1 {
		t.Fatalf("expected a single model call, got %d", gen.calls())
	}
	if second.Filename != "renamed.pdf" || second.PrefilterScore != 0.9 {
		t.Fatalf("expected current filename and prefilter score, got %q %f", second.Filename, second.PrefilterScore)
	}

	second.CacheHit = false
	second.Filename = first.Filename
	second.PrefilterScore = first.PrefilterScore
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached scoring fields differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestScoreCacheKeySensitivity(t *testing.T) {
	store := newStore(t)
	gen := &stubGenerator{response: modelResponse}
	rec := testRecord()
	ctx := context.Background()

	base := NewScorer(gen, store, testRubric("rubric"), Config{}, nil)
	if _, err := base.Score(ctx, rec, "jd"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	variants := []struct {
		name   string
		scorer *Scorer
		jd     string
	}{
		{name: "job description", scorer: base, jd: "another jd"},
		{name: "rubric", scorer: NewScorer(gen, store, testRubric("another rubric"), Config{}, nil), jd: "jd"},
		{name: "schema version", scorer: NewScorer(gen, store, testRubric("rubric"), Config{SchemaVersion: "v2"}, nil), jd: "jd"},
	}

	for i, v := range variants {
		scored, err := v.scorer.Score(ctx, rec, v.jd)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", v.name, err)
		}
		if scored.CacheHit {
			t.Fatalf("%s: expected a fresh scoring call", v.name)
		}
		if gen.calls() != i+2 {
			t.Fatalf("%s: expected %d model calls, got %d", v.name, i+2, gen.calls())
		}
	}

	again, err := base.Score(ctx, rec, "jd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.CacheHit {
		t.Fatalf("original key must still hit")
	}
}

func TestScoreFallbackIsNotCached(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{name: "call failure", gen: &stubGenerator{err: errors.New("rate limited")}},
		{name: "malformed json", gen: &stubGenerator{response: "I cannot score this"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.WarnLevel)
			scorer := NewScorer(tt.gen, newStore(t), testRubric("rubric"), Config{}, zap.New(core))
			rec := testRecord()

			scored, err := scorer.Score(context.Background(), rec, "jd")
			if err != nil {
				t.Fatalf("expected fallback record, got error %v", err)
			}
			if scored.TotalScore == nil || *scored.TotalScore != 0 {
				t.Fatalf("expected zero total, got %v", scored.TotalScore)
			}
			if !strings.HasPrefix(scored.Rationale, "Error during scoring: ") {
				t.Fatalf("unexpected rationale: %q", scored.Rationale)
			}
			if scored.ApplicantName != nil || scored.Email != nil || scored.ResumeFileName != "jane.pdf" {
				t.Fatalf("unexpected fallback profile: %+v", scored.Profile)
			}
			if scored.PrefilterScore != rec.PrefilterScore {
				t.Fatalf("expected prefilter score on fallback")
			}
			if observed.FilterMessage("resume scoring failed, using fallback record").Len() != 1 {
				t.Fatalf("expected warning to be logged")
			}

			cached, err := scorer.Cached(rec, "jd")
			if err != nil || cached {
				t.Fatalf("failed scoring must not be cached, got %v %v", cached, err)
			}

			if _, err := scorer.Score(context.Background(), rec, "jd"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.gen.calls() != 2 {
				t.Fatalf("expected retry on rerun, got %d calls", tt.gen.calls())
			}
		})
	}
}

func TestScoreWithoutRubricIsNotCached(t *testing.T) {
	gen := &stubGenerator{response: `{"total_score": 80, "rationale": "ok"}`}
	failed := &rubric.Schema{Dimensions: []rubric.Dimension{}, RubricFingerprint: "deadbeefdeadbeef", Error: "bad rubric"}
	scorer := NewScorer(gen, newStore(t), failed, Config{}, nil)

	scored, err := scorer.Score(context.Background(), testRecord(), "jd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *scored.TotalScore != 0 || len(scored.Dimensions) != 0 {
		t.Fatalf("expected zero dimensions and total, got %+v", scored)
	}
	if cached, _ := scorer.Cached(testRecord(), "jd"); cached {
		t.Fatalf("scores without a parsed rubric must not be cached")
	}
}

func TestScoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &stubGenerator{err: context.Canceled}
	scorer := NewScorer(gen, newStore(t), testRubric("rubric"), Config{}, nil)

	if _, err := scorer.Score(ctx, testRecord(), "jd"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestTruncationKeepsHintBlockOrdering(t *testing.T) {
	long := strings.Repeat("x", 100) + " reach me at a@b.com"
	bounded, detected := boundedResume(long, 50)

	if len([]rune(bounded)) != 50 {
		t.Fatalf("expected 50 runes, got %d", len([]rune(bounded)))
	}
	if !reflect.DeepEqual(detected.Emails, []string{"a@b.com"}) {
		t.Fatalf("expected detection on the full text, got %v", detected.Emails)
	}

	short := "Jane a@b.com"
	bounded, _ = boundedResume(short, 5000)
	if !strings.Contains(bounded, contacts.HintBlockStart) || !strings.Contains(bounded, contacts.HintBlockEnd) {
		t.Fatalf("expected hint block in bounded text: %q", bounded)
	}
	if !strings.HasPrefix(bounded, short) {
		t.Fatalf("expected resume text before the hint block")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateRunes("abc", 10); got != "abc" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestPromptCarriesRubricAndSchema(t *testing.T) {
	gen := &stubGenerator{response: modelResponse}
	scorer := NewScorer(gen, newStore(t), testRubric("rubric"), Config{Model: "score-model"}, nil)

	if _, err := scorer.Score(context.Background(), testRecord(), "Senior Go engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := gen.requests[0]
	if req.Model != "score-model" || !strings.Contains(req.System, "rubric-driven scorer") {
		t.Fatalf("unexpected request: %+v", req)
	}
	for _, want := range []string{
		"JOB DESCRIPTION:\nSenior Go engineer",
		"PARSED_RUBRIC_JSON:",
		`"key":"projects"`,
		"RESUME (jane.pdf):",
		contacts.HintBlockStart,
		`"A_projects_score"`,
		`"B_communication_reason"`,
	} {
		if !strings.Contains(req.Prompt, want) {
			t.Fatalf("prompt is missing %q", want)
		}
	}
}
