// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct{}

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("boom") }
func (f failingHandler) WithAttrs([]slog.Attr) slog.Handler      { return f }
func (f failingHandler) WithGroup(string) slog.Handler           { return f }

func TestPrettyHandler_Enabled(t *testing.T) {
	tests := []struct {
		name    string
		level   slog.Level
		options *slog.HandlerOptions
		want    bool
	}{
		{
			name:    "debug level with debug handler",
			level:   slog.LevelDebug,
			options: &slog.HandlerOptions{Level: slog.LevelDebug},
			want:    true,
		},
		{
			name:    "debug level with info handler",
			level:   slog.LevelDebug,
			options: &slog.HandlerOptions{Level: slog.LevelInfo},
			want:    false,
		},
		{
			name:    "error level with warn handler",
			level:   slog.LevelError,
			options: &slog.HandlerOptions{Level: slog.LevelWarn},
			want:    true,
		},
		{
			name:  "nil options defaults to info",
			level: slog.LevelInfo,
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewPrettyHandler(tt.options)
			assert.Equal(t, tt.want, handler.Enabled(context.Background(), tt.level))
		})
	}
}

func TestPrettyHandler_WithAttrsSharesState(t *testing.T) {
	handler := NewPrettyHandler(&slog.HandlerOptions{}, WithOutputEmptyAttrs())

	withAttrs, ok := handler.WithAttrs([]slog.Attr{slog.String("package", "left-pad")}).(*PrettyHandler)
	require.True(t, ok)
	assert.Same(t, handler.b, withAttrs.b)
	assert.Same(t, handler.m, withAttrs.m)
	assert.True(t, withAttrs.outputEmptyAttrs, "options survive WithAttrs")

	withGroup, ok := handler.WithGroup("step").(*PrettyHandler)
	require.True(t, ok)
	assert.Same(t, handler.b, withGroup.b)
}

func TestPrettyHandler_Handle(t *testing.T) {
	tests := []struct {
		name           string
		level          slog.Level
		message        string
		attrs          []any
		options        []Option
		expectInOutput []string
	}{
		{
			name:           "basic info message",
			level:          slog.LevelInfo,
			message:        "cloning repository",
			expectInOutput: []string{"INFO:", "cloning repository"},
		},
		{
			name:           "debug message with attributes",
			level:          slog.LevelDebug,
			message:        "command info",
			attrs:          []any{"package", "left-pad", "elapsedMillis", 42},
			expectInOutput: []string{"DEBUG:", "command info", "package", "left-pad", "42"},
		},
		{
			name:           "stderr line",
			level:          slog.LevelWarn,
			message:        "npm WARN deprecated",
			attrs:          []any{"stream", "stderr"},
			expectInOutput: []string{"WARN:", "npm WARN deprecated", "stderr"},
		},
		{
			name:           "empty attrs output enabled",
			level:          slog.LevelError,
			message:        "workspace failure",
			options:        []Option{WithOutputEmptyAttrs()},
			expectInOutput: []string{"ERROR:", "workspace failure", "{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			opts := append([]Option{WithDestinationWriter(&buf)}, tt.options...)
			handler := NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelDebug}, opts...)

			record := slog.NewRecord(time.Now(), tt.level, tt.message, 0)
			record.Add(tt.attrs...)

			require.NoError(t, handler.Handle(context.Background(), record))

			output := buf.String()
			for _, expected := range tt.expectInOutput {
				assert.Contains(t, output, expected)
			}

			assert.Equal(t, byte('\n'), output[len(output)-1], "output should end with newline")
		})
	}
}

func TestPrettyHandler_Handle_WithReplaceAttr(t *testing.T) {
	var buf bytes.Buffer

	replaceAttr := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}

		if a.Key == "token" {
			return slog.String("token", "[REDACTED]")
		}

		return a
	}

	handler := NewPrettyHandler(&slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: replaceAttr,
	}, WithDestinationWriter(&buf))

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "registry lookup", 0)
	record.Add("token", "hunter2", "package", "chalk")

	require.NoError(t, handler.Handle(context.Background(), record))

	output := buf.String()
	assert.Contains(t, output, "[REDACTED]")
	assert.NotContains(t, output, "hunter2")
	assert.Contains(t, output, "chalk")
	assert.NotRegexp(t, `^\[\d{2}:`, output, "time attribute was removed")
}

func TestPrettyHandler_computeAttrs_Error(t *testing.T) {
	handler := NewPrettyHandler(nil)
	handler.h = failingHandler{}

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "test", 0)
	_, err := handler.computeAttrs(context.Background(), record)
	require.Error(t, err)
}

func TestFunctionalOptions(t *testing.T) {
	var buf bytes.Buffer

	handler := NewPrettyHandler(nil, WithDestinationWriter(&buf), WithColour(), WithOutputEmptyAttrs())
	assert.Same(t, &buf, handler.writer)
	assert.True(t, handler.colour)
	assert.True(t, handler.outputEmptyAttrs)
	assert.False(t, handler.formatter.DisabledColor)

	auto := NewPrettyHandler(nil, WithDestinationWriter(&buf), WithAutoColour())
	assert.False(t, auto.colour, "a buffer is never a terminal")
}

func TestColourEnabled_Env(t *testing.T) {
	var buf bytes.Buffer

	t.Setenv(ForceColor, "1")
	assert.True(t, ColourEnabled(&buf))

	t.Setenv(NoColor, "1")
	assert.False(t, ColourEnabled(&buf), "NO_COLOR wins over FORCE_COLOR")
}

func TestSuppressDefaults(t *testing.T) {
	next := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == "transform" {
			return slog.String("transform", "transformed")
		}

		return a
	}

	tests := []struct {
		name string
		next func([]string, slog.Attr) slog.Attr
		attr slog.Attr
		want slog.Attr
	}{
		{name: "time suppressed", attr: slog.Time(slog.TimeKey, time.Now()), want: slog.Attr{}},
		{name: "level suppressed", attr: slog.Any(slog.LevelKey, slog.LevelInfo), want: slog.Attr{}},
		{name: "message suppressed", attr: slog.String(slog.MessageKey, "x"), want: slog.Attr{}},
		{name: "custom kept", attr: slog.String("custom", "value"), want: slog.String("custom", "value")},
		{
			name: "next applied",
			next: next,
			attr: slog.String("transform", "raw"),
			want: slog.String("transform", "transformed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suppressDefaults(tt.next)([]string{}, tt.attr)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}
