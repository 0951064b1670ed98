// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// LogLevelEnvVar is the environment variable used to set the log level.
	LogLevelEnvVar = "PKGCANARY_LOG_LEVEL"
	// FormatPretty selects the human-readable console handler.
	FormatPretty = "pretty"
	// FormatJSON selects the slog JSON handler.
	FormatJSON = "json"
)

type loggerKey struct{}

// LevelVar holds the level shared by every logger created by this package.
var LevelVar = &slog.LevelVar{}

// DefaultLogger is a pretty console logger that is used if no logger is provided.
var DefaultLogger = NewPrettyLogger(os.Stdout)

func init() {
	LevelVar.Set(logLevelFromEnv())
}

// NewPrettyLogger returns a logger that writes pretty, optionally coloured, lines to w.
func NewPrettyLogger(w io.Writer) *slog.Logger {
	return slog.New(NewPrettyHandler(&slog.HandlerOptions{
		Level: LevelVar,
	},
		WithAutoColour(),
		WithDestinationWriter(w),
	))
}

// NewJSONLogger returns a logger that writes one JSON object per record to w.
func NewJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: LevelVar,
	}))
}

// ForFormat returns a logger writing to w in the named format.
// Unknown formats fall back to the pretty handler.
func ForFormat(format string, w io.Writer) *slog.Logger {
	if strings.EqualFold(format, FormatJSON) {
		return NewJSONLogger(w)
	}

	return NewPrettyLogger(w)
}

// New creates a new context with the given logger.
// If logger is nil, it uses the default logger.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// With returns a context whose logger carries the given attributes.
func With(ctx context.Context, args ...any) context.Context {
	return New(ctx, Logger(ctx).With(args...))
}

// Logger returns the logger from the context, or the default logger if not found.
func Logger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return DefaultLogger
	}

	return logger
}

// Info logs an info message with the given context.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Info(msg, args...)
}

// Debug logs a debug message with the given context.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Debug(msg, args...)
}

// Warn logs a warning message with the given context.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Warn(msg, args...)
}

// Error logs an error message with the given context.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Error(msg, args...)
}

func logLevelFromEnv() slog.Level {
	switch strings.ToUpper(os.Getenv(LogLevelEnvVar)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
