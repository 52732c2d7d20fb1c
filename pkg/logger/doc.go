// Package logger provides a structured logging interface for icpscout.
//
// It wraps the zerolog library behind a small Logger interface so that
// pipeline components can be handed a logger (or a nop logger in tests)
// without depending on zerolog directly.
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info"}
//	if err := logger.Initialize(cfg); err != nil { ... }
//
//	logger.GetLogger().WithField("brand", "acme").Info("run started")
package logger
