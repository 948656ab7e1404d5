// Package logging builds the zap logger used across homedash.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seckatie/homedash/internal/config"
)

// New returns a logger suited to the mode: human-readable console output in
// development, JSON in production. verbose lowers the level to debug.
func New(mode config.Mode, verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if mode == config.ModeProduction {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.With(zap.String("mode", string(mode))), nil
}
