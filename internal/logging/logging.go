// Package logging builds the zap loggers used by every shelf command.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing to path, or to stderr when path is empty.
// verbose lowers the level to debug.
func New(path string, verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	out := "stderr"
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		out = trimmed
	}
	config.OutputPaths = []string{out}
	config.ErrorOutputPaths = []string{out}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("shelf"), nil
}
