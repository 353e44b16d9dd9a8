package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level sugared logger. Replaced by Initialize; usable before
// Initialize is called (defaults to info on stdout).
var std = newLogger(zapcore.InfoLevel, false)

func newLogger(level zapcore.Level, caller bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = !caller
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		// Config is static; Build only fails on bad output paths.
		l = zap.NewNop()
	}
	return l.Sugar()
}

// Initialize sets up the global logger level based on input string
// (e.g., "debug", "info", "warn", "error"). Debug also enables caller info.
func Initialize(level string) {
	switch level {
	case "debug", "DEBUG":
		std = newLogger(zapcore.DebugLevel, true)
	case "warn", "WARN", "warning", "WARNING":
		std = newLogger(zapcore.WarnLevel, false)
	case "error", "ERROR":
		std = newLogger(zapcore.ErrorLevel, false)
	default:
		std = newLogger(zapcore.InfoLevel, false)
	}
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() { _ = std.Sync() }

// Package-level helpers
func Debug(format string, v ...interface{}) { std.Debugf(format, v...) }
func Info(format string, v ...interface{})  { std.Infof(format, v...) }
func Warn(format string, v ...interface{})  { std.Warnf(format, v...) }
func Error(format string, v ...interface{}) { std.Errorf(format, v...) }
