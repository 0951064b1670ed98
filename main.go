// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main is the entry point for the pkgcanary command-line application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/pkgcanary/cmd"
	"github.com/matt-FFFFFF/pkgcanary/internal/ctxlog"
	pkgerrors "github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func main() {
	ctx := ctxlog.New(context.Background(), ctxlog.DefaultLogger)

	if err := cmd.RootCmd.Run(ctx, os.Args); err != nil {
		args := []any{"error", err.Error()}

		var st stackTracer
		if errors.As(err, &st) {
			args = append(args, "stack", fmt.Sprintf("%+v", st))
		}

		ctxlog.Logger(ctx).Error("command failed", args...)
		os.Exit(1)
	}

	os.Exit(0)
}
