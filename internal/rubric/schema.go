package rubric

import (
	"fmt"
	"strings"
	"unicode"
)

// Band is a sub-range of a dimension's point scale.
type Band struct {
	MinPoints   int    `json:"min_points"`
	MaxPoints   int    `json:"max_points"`
	Description string `json:"description"`
}

// Dimension is one point-weighted scoring criterion.
type Dimension struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Key       string `json:"key"`
	MaxPoints int    `json:"max_points"`
	Bands     []Band `json:"bands"`
}

// Schema is the structured form of a rubric. Bands are carried through as
// returned by the model; their order and overlap are not checked.
type Schema struct {
	Dimensions        []Dimension `json:"dimensions"`
	TotalMaxPoints    int         `json:"total_max_points"`
	RubricFingerprint string      `json:"rubric_fingerprint"`
	// Error is set when parsing failed. The schema then has no dimensions.
	Error    string `json:"error,omitempty"`
	CacheHit bool   `json:"cache_hit"`
}

// OK reports whether the rubric was parsed successfully.
func (s *Schema) OK() bool {
	return s != nil && s.Error == "" && len(s.Dimensions) > 0
}

func (s *Schema) sumMaxPoints() int {
	total := 0
	for _, d := range s.Dimensions {
		total += d.MaxPoints
	}
	return total
}

// Slugify lowercases title, replaces every non-alphanumeric rune with "_",
// collapses repeats and trims the result. Empty results become "dimension".
func Slugify(title string) string {
	var builder strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			builder.WriteByte('_')
			lastUnderscore = true
		}
	}

	slug := strings.Trim(builder.String(), "_")
	if slug == "" {
		return "dimension"
	}
	return slug
}

// positionalID names the i-th dimension A, B, ... when the model omitted it.
func positionalID(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("D%d", i+1)
}
