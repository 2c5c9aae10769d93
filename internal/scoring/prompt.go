package scoring

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spigell/resume-screener/internal/contacts"
	"github.com/spigell/resume-screener/internal/rubric"
)

//go:embed system.md
var systemPrompt string

// boundedResume appends the detected contacts block and then truncates the
// result to limit runes. Contacts are detected on the full text.
func boundedResume(text string, limit int) (string, contacts.Detected) {
	detected := contacts.Detect(text)
	enriched := contacts.RenderHintBlock(text, detected)
	return truncateRunes(enriched, limit), detected
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

type rubricView struct {
	Dimensions     []rubric.Dimension `json:"dimensions"`
	TotalMaxPoints int                `json:"total_max_points"`
}

func buildPrompt(jd, filename string, schema *rubric.Schema, resumeText string) (string, error) {
	view := rubricView{Dimensions: []rubric.Dimension{}}
	if schema != nil {
		if schema.Dimensions != nil {
			view.Dimensions = schema.Dimensions
		}
		view.TotalMaxPoints = schema.TotalMaxPoints
	}

	rubricJSON, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("marshal rubric: %w", err)
	}

	schemaJSON, err := json.Marshal(BuildSchema(view.Dimensions))
	if err != nil {
		return "", fmt.Errorf("marshal output schema: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "JOB DESCRIPTION:\n%s\n\n", jd)
	fmt.Fprintf(&b, "PARSED_RUBRIC_JSON:\n%s\n\n", rubricJSON)
	fmt.Fprintf(&b, "RESUME (%s):\n%s\n\n", filename, resumeText)
	b.WriteString("Instructions:\n")
	b.WriteString("- Use ONLY the resume text and DETECTED_CONTACTS for evidence.\n")
	b.WriteString("- Score each dimension by selecting the best-fitting band; choose an integer within that band's range.\n")
	b.WriteString("- Provide a short justification per dimension.\n")
	b.WriteString("- Compute total_score as the sum of all dimension scores.\n")
	b.WriteString("- Evidence must be 1-3 literal quotes from the resume text.\n")
	b.WriteString("- If resume lacks data for a dimension, score low and state so.\n\n")
	b.WriteString("Return ONLY JSON matching this schema (no extra text):\n")
	fmt.Fprintf(&b, "%s\n", schemaJSON)
	b.WriteString("Hard requirements:\n")
	b.WriteString("- \"resume_file_name\" must equal the provided file name exactly.\n")
	b.WriteString("- \"education_level\" must be one of [\"UG\",\"PG\",\"PhD\"] or null.\n")
	b.WriteString("- Numeric fields must be numbers (not strings).\n")
	b.WriteString("- Evidence must be literal quotes from the resume.\n")

	return b.String(), nil
}
