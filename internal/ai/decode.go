package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodeObject parses a model response into a JSON object. Markdown code
// fences and text around the outermost braces are tolerated.
func DecodeObject(raw string) (map[string]any, error) {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return nil, errors.New("model returned empty response")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	if data == nil {
		return nil, errors.New("model response is not a json object")
	}

	return data, nil
}

// ExtractJSON strips code fences and anything outside the outermost object.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start > 0 && end > start {
		raw = raw[start : end+1]
	}

	return raw
}

// CoerceInt converts loosely typed numbers to an int. Numeric strings are
// parsed, fractions are truncated and everything else yields 0.
func CoerceInt(v any) int {
	switch val := v.(type) {
	case float64:
		return truncate(val)
	case float32:
		return truncate(float64(val))
	case int:
		return val
	case int64:
		return int(val)
	case json.Number:
		return CoerceInt(val.String())
	case string:
		trimmed := strings.TrimSpace(val)
		if n, err := strconv.Atoi(trimmed); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return truncate(f)
		}
		return 0
	default:
		return 0
	}
}

func truncate(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// CoerceString renders any value as a trimmed string. Nil yields "".
func CoerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// CoerceStrings converts a list of values into non-empty strings. A single
// string is treated as a one-element list.
func CoerceStrings(v any) []string {
	out := make([]string, 0)
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := CoerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range val {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, s)
		}
	}
	return out
}
