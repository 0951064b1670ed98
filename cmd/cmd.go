// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/pkgcanary/cmd/config"
	"github.com/matt-FFFFFF/pkgcanary/cmd/run"
	"github.com/matt-FFFFFF/pkgcanary/cmd/show"
	"github.com/matt-FFFFFF/pkgcanary/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const logFormatFlag = "log-format"

var (
	// Version is set during the build process.
	Version = "dev"
	// Commit is set during the build process.
	Commit = "unknown"
)

// RootCmd is the root command for the CLI.
var RootCmd = NewRootCmd()

// NewRootCmd returns the root command with its sub-commands.
func NewRootCmd() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			run.NewCommand(),
			show.NewCommand(),
			config.NewCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  logFormatFlag,
				Usage: "Log output format, pretty or json",
				Value: ctxlog.FormatPretty,
				Validator: func(s string) error {
					if s != ctxlog.FormatPretty && s != ctxlog.FormatJSON {
						return fmt.Errorf("unsupported log format %q", s)
					}

					return nil
				},
			},
		},
		Before:    setLogger,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Name:      "pkgcanary",
		Version:   Version + " (" + Commit + ")",
		Description: `pkgcanary checks that published packages still install and pass their own tests.
For every package in the input list it looks up the source repository in the registry,
makes a shallow clone, installs the dependencies and runs the test command, each under a
hard timeout. The results are written as a JSON report with one entry per package.`,
		Usage:     "pkgcanary run --packages packages.txt",
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		EnableShellCompletion: true,
	}
}

func setLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if !cmd.IsSet(logFormatFlag) {
		return ctx, nil
	}

	return ctxlog.New(ctx, ctxlog.ForFormat(cmd.String(logFormatFlag), os.Stdout)), nil
}
