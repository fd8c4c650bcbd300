package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger is replaced in the root command's PersistentPreRunE.
var logger = zap.NewNop()

// newLogger builds the stderr logger. Debug output needs verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.Sampling = nil
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func dbg(format string, args ...any) {
	logger.Sugar().Debugf(format, args...)
}
