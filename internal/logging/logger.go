package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where and how much a program logs.
type Options struct {
	// Path is the JSON log file.
	Path string
	// Instance and Program are attached to every entry.
	Instance string
	Program  string
	// Level is a zap level name; empty means info.
	Level string
	// Console also writes human-readable entries to stderr. Interactive
	// clients leave it off because the terminal belongs to the UI.
	Console bool
}

// New creates a zap logger that writes JSON to the log file and, with
// Console set, also writes to stderr. Instance, program and PID are
// included as initial fields.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level),
	}
	if opts.Console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.Fields(
			zap.String("instance", opts.Instance),
			zap.String("program", opts.Program),
			zap.Int("pid", os.Getpid()),
		),
	)

	return logger, nil
}

// ParseLevel parses a level name. The empty string is info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return level, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}
