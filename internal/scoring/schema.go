package scoring

import (
	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/rubric"
)

type property struct {
	name   string
	schema map[string]any
}

func nullable(kind string) map[string]any {
	return map[string]any{"type": []any{kind, "null"}}
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

var profileProperties = []property{
	{"resume_file_name", map[string]any{"type": "string"}},
	{"applicant_name", nullable("string")},
	{"email", nullable("string")},
	{"phone", nullable("string")},
	{"city_location", nullable("string")},
	{"college", nullable("string")},
	{"education_level", map[string]any{"type": []any{"string", "null"}, "enum": []any{"UG", "PG", "PhD", nil}}},
	{"graduation_year", nullable("integer")},
	{"total_experience_years", nullable("number")},
	{"relevant_experience_years", nullable("number")},
	{"current_or_last_company", nullable("string")},
	{"key_roles", map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":           nullable("string"),
				"company":         nullable("string"),
				"start_month":     nullable("integer"),
				"start_year":      nullable("integer"),
				"end_month":       nullable("integer"),
				"end_year":        nullable("integer"),
				"duration_months": nullable("integer"),
			},
		},
	}},
	{"portfolio_github_links", stringList()},
	{"linkedin_link", nullable("string")},
	{"achievements", stringList()},
}

// listFields default to empty arrays when the model omits them.
var listFields = []string{"key_roles", "portfolio_github_links", "achievements", "evidence"}

// ProfileSchema returns the fixed applicant profile properties.
func ProfileSchema() map[string]any {
	props := make(map[string]any, len(profileProperties))
	for _, p := range profileProperties {
		props[p.name] = p.schema
	}
	return props
}

// DimensionSchema returns a score and a reason property per rubric dimension.
func DimensionSchema(dims []rubric.Dimension) map[string]any {
	props := make(map[string]any, len(dims)*2)
	for _, d := range dims {
		props[candidate.ScoreField(d.ID, d.Key)] = map[string]any{
			"type":    "integer",
			"minimum": 0,
			"maximum": d.MaxPoints,
		}
		props[candidate.ReasonField(d.ID, d.Key)] = map[string]any{"type": "string"}
	}
	return props
}

// BuildSchema merges the profile and dimension fragments with the aggregate
// fields into one JSON schema object.
func BuildSchema(dims []rubric.Dimension) map[string]any {
	props := ProfileSchema()
	for name, s := range DimensionSchema(dims) {
		props[name] = s
	}
	props["total_score"] = map[string]any{"type": "integer"}
	props["rationale"] = map[string]any{"type": "string"}
	props["evidence"] = stringList()

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []any{"resume_file_name", "total_score", "evidence"},
	}
}
