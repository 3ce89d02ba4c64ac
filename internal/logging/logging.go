// Package logging builds the structured logger shared by the commands.
package logging

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console logger writing to stderr. verbose lowers the level
// to debug.
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableStacktrace = true
	config.Sampling = nil
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// WithRun tags a logger with a fresh run id and returns both.
func WithRun(logger *zap.Logger) (*zap.Logger, string) {
	id := uuid.NewString()
	return logger.With(zap.String("run_id", id)), id
}
