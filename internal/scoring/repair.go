package scoring

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/rubric"
	"github.com/xeipuuv/gojsonschema"
)

// repairDimensions fills missing required fields in obj, clamps every
// dimension score into [0, max_points] and overwrites total_score with the
// sum of the clamped scores.
func repairDimensions(obj map[string]any, filename string, dims []rubric.Dimension) ([]candidate.DimensionScore, int) {
	if ai.CoerceString(obj["resume_file_name"]) == "" {
		obj["resume_file_name"] = filename
	}
	for _, field := range listFields {
		if obj[field] == nil {
			obj[field] = []any{}
		}
	}

	scores := make([]candidate.DimensionScore, 0, len(dims))
	total := 0
	for _, d := range dims {
		ds := candidate.DimensionScore{ID: d.ID, Key: d.Key, MaxPoints: d.MaxPoints}
		ds.Score = clamp(ai.CoerceInt(obj[ds.ScoreField()]), 0, d.MaxPoints)
		ds.Reason = ai.CoerceString(obj[ds.ReasonField()])

		obj[ds.ScoreField()] = ds.Score
		total += ds.Score
		scores = append(scores, ds)
	}
	obj["total_score"] = total

	return scores, total
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func newProfileDecoder(out *candidate.Profile) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
}

// decodeProfile decodes the profile fields one by one so a malformed field
// is left empty without losing the others.
func decodeProfile(obj map[string]any) (candidate.Profile, map[string]error) {
	var profile candidate.Profile
	failures := make(map[string]error)

	for _, p := range profileProperties {
		value, ok := obj[p.name]
		if !ok || value == nil {
			continue
		}
		part := map[string]any{p.name: value}

		var scratch candidate.Profile
		dec, err := newProfileDecoder(&scratch)
		if err != nil {
			failures[p.name] = err
			continue
		}
		if err := dec.Decode(part); err != nil {
			failures[p.name] = err
			continue
		}

		dec, err = newProfileDecoder(&profile)
		if err != nil {
			failures[p.name] = err
			continue
		}
		if err := dec.Decode(part); err != nil {
			failures[p.name] = err
		}
	}

	profile.EnsureLists()
	return profile, failures
}

// validate checks the repaired response against the output schema and
// returns the violations.
func validate(schema, obj map[string]any) ([]string, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(obj))
	if err != nil {
		return nil, fmt.Errorf("validate response: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}
