// Package logging builds the zap logger used across wprollup.
//
// Output always goes to stderr: stdout carries the MCP stdio transport.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger for mode ("dev" or "prod") at the given level.
// Production output is JSON; development output is the console encoder.
func New(mode, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("logging: level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return l.Named("wprollup"), nil
}

// Sync flushes l, ignoring the EINVAL stderr returns on some platforms.
func Sync(l *zap.Logger) {
	_ = l.Sync()
}
