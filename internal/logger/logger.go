package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects how the process logger writes.
type Options struct {
	// JSON switches from console to JSON lines, for runs whose stderr is
	// collected by other tools.
	JSON  bool
	Debug bool
	// RunID is attached to every entry when set.
	RunID string
}

// New builds the process logger. Entries go to stderr so results printed on
// stdout stay machine readable.
func New(opts Options) (*zap.Logger, error) {
	logger, err := config(opts).Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

func config(opts Options) zap.Config {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encoding := "console"
	if opts.JSON {
		encoding = "json"
	}

	var initial map[string]any
	if runID := strings.TrimSpace(opts.RunID); runID != "" {
		initial = map[string]any{FieldRunID: runID}
	}

	return zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    initial,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "step",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			EncodeDuration: zapcore.MillisDurationEncoder,
		},
	}
}
