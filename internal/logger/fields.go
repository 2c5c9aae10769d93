package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the LLM provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the LLM model identifier.
	FieldModel = "ai_model"
	// FieldResumeFile is the structured log field key for a resume filename.
	FieldResumeFile = "resume_file"
	// FieldResumeFingerprint is the structured log field key for a resume content fingerprint.
	FieldResumeFingerprint = "resume_fingerprint"
	// FieldRunID identifies one pipeline invocation.
	FieldRunID = "run_id"
	// FieldRank is the 1-based position of a resume in the final ranking.
	FieldRank = "rank"
	// FieldFinalScore is the score a resume was ranked by.
	FieldFinalScore = "final_score"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the AI provider and model.
// Empty values are ignored to keep log entries compact when information is missing.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// ResumeFields describes a single resume in log entries.
func ResumeFields(filename, fingerprint string) []zap.Field {
	return StringFields(
		StringField{Key: FieldResumeFile, Value: filename},
		StringField{Key: FieldResumeFingerprint, Value: fingerprint},
	)
}

// RankedFields describes a resume's place in the final ranking.
func RankedFields(rank int, filename string, finalScore float64) []zap.Field {
	fields := []zap.Field{zap.Int(FieldRank, rank)}
	fields = append(fields, StringFields(StringField{Key: FieldResumeFile, Value: filename})...)
	return append(fields, zap.Float64(FieldFinalScore, finalScore))
}
