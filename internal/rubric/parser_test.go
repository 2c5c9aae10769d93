package rubric

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/cache"
	"github.com/spigell/resume-screener/internal/fingerprint"
	"go.uber.org/zap"
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

const rubricText = `A. Projects / Initiatives (30 points)
25-30: shipped production systems
B. Communication (20 points)
10–20: clear writing`

const rubricResponse = "```json\n" + `{
  "dimensions": [
    {"id": "A", "title": "Projects / Initiatives", "max_points": 30,
     "bands": [{"min_points": 25, "max_points": "30", "description": "shipped production systems"}]},
    {"title": "Communication", "max_points": "20",
     "bands": [{"min_points": "10", "max_points": 20, "description": "clear writing"}]}
  ]
}` + "\n```"

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func TestParseAndCache(t *testing.T) {
	gen := &stubGenerator{response: rubricResponse}
	store := newStore(t)
	parser := NewParser(gen, store, Config{Model: "parse-model"}, zap.NewNop())

	schema, err := parser.Parse(context.Background(), rubricText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !schema.OK() || schema.CacheHit {
		t.Fatalf("expected fresh successful schema, got %+v", schema)
	}
	if schema.RubricFingerprint != fingerprint.ShortText(rubricText) {
		t.Fatalf("unexpected fingerprint: %q", schema.RubricFingerprint)
	}
	if schema.TotalMaxPoints != 50 {
		t.Fatalf("expected total 50, got %d", schema.TotalMaxPoints)
	}

	a, b := schema.Dimensions[0], schema.Dimensions[1]
	if a.ID != "A" || a.Key != "projects_initiatives" || a.MaxPoints != 30 {
		t.Fatalf("unexpected first dimension: %+v", a)
	}
	if a.Bands[0].MaxPoints != 30 || a.Bands[0].MinPoints != 25 {
		t.Fatalf("unexpected first band: %+v", a.Bands[0])
	}
	if b.ID != "B" || b.Key != "communication" || b.MaxPoints != 20 || b.Bands[0].MinPoints != 10 {
		t.Fatalf("unexpected second dimension: %+v", b)
	}

	if gen.requests[0].Model != "parse-model" {
		t.Fatalf("expected configured model, got %q", gen.requests[0].Model)
	}
	if !strings.Contains(gen.requests[0].System, "rubric parser") {
		t.Fatalf("expected system prompt to be sent")
	}
	if !strings.Contains(gen.requests[0].Prompt, rubricText) {
		t.Fatalf("expected rubric text in prompt")
	}

	if _, err := os.Stat(store.RubricPath(schema.RubricFingerprint)); err != nil {
		t.Fatalf("expected rubric cache file: %v", err)
	}

	again, err := parser.Parse(context.Background(), rubricText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.CacheHit {
		t.Fatalf("expected cache hit on second parse")
	}
	if gen.calls() != 1 {
		t.Fatalf("expected a single model call, got %d", gen.calls())
	}
	if again.TotalMaxPoints != schema.TotalMaxPoints || len(again.Dimensions) != 2 || again.Dimensions[1].Key != "communication" {
		t.Fatalf("cached schema differs: %+v", again)
	}
}

func TestParseSoftFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
		text string
	}{
		{name: "call failure", gen: &stubGenerator{err: errors.New("quota exceeded")}, text: rubricText},
		{name: "malformed json", gen: &stubGenerator{response: "{\"dimensions\": ["}, text: rubricText},
		{name: "no dimensions", gen: &stubGenerator{response: `{"dimensions": []}`}, text: rubricText},
		{name: "wrong shape", gen: &stubGenerator{response: `{"dimensions": "A, B"}`}, text: rubricText},
		{name: "empty rubric", gen: &stubGenerator{response: rubricResponse}, text: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			parser := NewParser(tt.gen, store, Config{}, nil)

			schema, err := parser.Parse(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("expected soft failure, got error %v", err)
			}
			if schema.Error == "" || schema.OK() {
				t.Fatalf("expected error marker, got %+v", schema)
			}
			if len(schema.Dimensions) != 0 || schema.TotalMaxPoints != 0 {
				t.Fatalf("expected empty schema, got %+v", schema)
			}

			found, err := store.Exists(store.RubricPath(schema.RubricFingerprint))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found {
				t.Fatalf("failed parse must not be cached")
			}
		})
	}
}

func TestParseCoercesNonNumeric(t *testing.T) {
	gen := &stubGenerator{response: `{"dimensions": [{"id": "A", "title": "Skills", "max_points": "thirty", "bands": [{"min_points": null, "max_points": 12.9}]}]}`}
	parser := NewParser(gen, newStore(t), Config{}, nil)

	schema, err := parser.Parse(context.Background(), "A. Skills")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dim := schema.Dimensions[0]
	if dim.MaxPoints != 0 || schema.TotalMaxPoints != 0 {
		t.Fatalf("expected non-numeric points to coerce to 0, got %+v", dim)
	}
	if dim.Bands[0].MinPoints != 0 || dim.Bands[0].MaxPoints != 12 {
		t.Fatalf("unexpected band coercion: %+v", dim.Bands[0])
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect string
	}{
		{input: "Projects / Initiatives", expect: "projects_initiatives"},
		{input: "  Communication  ", expect: "communication"},
		{input: "C++ & Go (backend)", expect: "c_go_backend"},
		{input: "Été Travail", expect: "été_travail"},
		{input: "---", expect: "dimension"},
		{input: "", expect: "dimension"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := Slugify(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestPositionalID(t *testing.T) {
	if positionalID(0) != "A" || positionalID(25) != "Z" || positionalID(26) != "D27" {
		t.Fatalf("unexpected positional ids")
	}
}
