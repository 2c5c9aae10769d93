// Package report writes the run artifacts: an append-only JSON lines log of
// scored resumes and a CSV summary of the ranking.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/rubric"
)

const (
	DetailsFile = "details.jsonl"
	ResultsFile = "results.csv"
)

// Writer writes artifacts into Dir. It is safe for concurrent use.
type Writer struct {
	Dir string

	mu sync.Mutex
}

func NewWriter(dir string) (*Writer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

func (w *Writer) DetailsPath() string {
	return filepath.Join(w.Dir, DetailsFile)
}

func (w *Writer) ResultsPath() string {
	return filepath.Join(w.Dir, ResultsFile)
}

// AppendDetails appends one flattened JSON document per record to the details log.
func (w *Writer) AppendDetails(records ...candidate.Scored) error {
	if len(records) == 0 {
		return nil
	}

	var buf strings.Builder
	for i := range records {
		flat, err := records[i].Flatten()
		if err != nil {
			return err
		}
		line, err := json.Marshal(flat)
		if err != nil {
			return fmt.Errorf("marshal details for %s: %w", records[i].Filename, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.DetailsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open details log: %w", err)
	}
	if _, err := f.WriteString(buf.String()); err != nil {
		f.Close()
		return fmt.Errorf("append details log: %w", err)
	}
	return f.Close()
}

// Header returns the CSV columns for the given rubric dimensions.
func Header(dims []rubric.Dimension) []string {
	header := []string{
		"rank", "final_score", "filename", "applicant_name", "email", "phone",
		"linkedin_link", "portfolio_github_links", "city_location", "total_experience_years",
	}
	for _, d := range dims {
		header = append(header, candidate.ScoreField(d.ID, d.Key))
	}
	return append(header, "total_score", "prefilter_score", "cache_hit", "rationale")
}

// WriteCSV replaces the results table with the ranked records.
func (w *Writer) WriteCSV(ranked []candidate.Ranked, dims []rubric.Dimension) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Create(w.ResultsPath())
	if err != nil {
		return fmt.Errorf("create results table: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(Header(dims)); err != nil {
		f.Close()
		return fmt.Errorf("write results header: %w", err)
	}
	for i := range ranked {
		if err := cw.Write(row(&ranked[i], dims)); err != nil {
			f.Close()
			return fmt.Errorf("write results row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush results table: %w", err)
	}

	return f.Close()
}

func row(r *candidate.Ranked, dims []rubric.Dimension) []string {
	out := []string{
		strconv.Itoa(r.Rank),
		formatFloat(r.FinalScore),
		r.Filename,
		deref(r.ApplicantName),
		deref(r.Email),
		deref(r.Phone),
		deref(r.LinkedinLink),
		strings.Join(r.PortfolioGithubLinks, "; "),
		deref(r.CityLocation),
		"",
	}
	if r.TotalExperienceYears != nil {
		out[len(out)-1] = formatFloat(*r.TotalExperienceYears)
	}

	for _, d := range dims {
		if ds, ok := r.Dimension(d.ID); ok {
			out = append(out, strconv.Itoa(ds.Score))
		} else {
			out = append(out, "")
		}
	}

	total := ""
	if r.TotalScore != nil {
		total = strconv.Itoa(*r.TotalScore)
	}
	return append(out, total, formatFloat(r.PrefilterScore), strconv.FormatBool(r.CacheHit), r.Rationale)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
