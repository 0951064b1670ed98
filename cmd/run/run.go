// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the run command, which tests every package in the input list.
package run

import (
	"context"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/pkgcanary/internal/batch"
	"github.com/matt-FFFFFF/pkgcanary/internal/config"
	"github.com/matt-FFFFFF/pkgcanary/internal/ctxlog"
	"github.com/matt-FFFFFF/pkgcanary/internal/metrics"
	"github.com/matt-FFFFFF/pkgcanary/internal/pipeline"
	"github.com/matt-FFFFFF/pkgcanary/internal/registry"
	"github.com/matt-FFFFFF/pkgcanary/internal/report"
	"github.com/matt-FFFFFF/pkgcanary/internal/supervisor"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	configFlag      = "config"
	packagesFlag    = "packages"
	workspaceFlag   = "workspace"
	outFlag         = "out"
	snapshotFlag    = "snapshot"
	metricsFileFlag = "metrics-file"
	registryFlag    = "registry"
	timeoutFlag     = "timeout"
	ignoreFlag      = "ignore"
	branchFlag      = "branch"
)

// FsFactory returns the filesystem used for the workspace and the results files.
var FsFactory = afero.NewOsFs

// NewRunner builds the command runner. Tests replace it to avoid spawning processes.
var NewRunner = func(cfg *config.Config) supervisor.Runner {
	return supervisor.New(cfg.TimeoutDuration(), cfg.KillGraceDuration())
}

// NewLookup builds the metadata lookup. Tests replace it to avoid network calls.
var NewLookup = func(cfg *config.Config) registry.Lookup {
	return registry.New(cfg.Registry, registry.WithTimeout(cfg.LookupTimeoutDuration()))
}

// NewCommand returns the run command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Clone, install and test every package in the input list",
		Description: `Run reads the package list and processes the packages one at a time:
the source repository is looked up in the registry, shallow cloned into the workspace,
its dependencies installed and its tests run. Each command has a hard timeout.

The package list and configuration file may be local paths or URLs in Hashicorp's
go-getter syntax, see https://github.com/hashicorp/go-getter.

The exit code is 0 when the batch completes, whatever the result of the individual packages.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      configFlag,
				Aliases:   []string{"c"},
				Usage:     "Configuration file (YAML, or HCL with a .hcl extension)",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      packagesFlag,
				Aliases:   []string{"p"},
				Usage:     "Package list: text with one name per line, or a JSON/YAML array",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      workspaceFlag,
				Usage:     "Scratch directory for checkouts, removed and recreated at start",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      outFlag,
				Aliases:   []string{"o"},
				Usage:     "Results file",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      snapshotFlag,
				Usage:     "Results snapshot file, rewritten after every package",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      metricsFileFlag,
				Usage:     "Write Prometheus metrics in the textfile format",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:     registryFlag,
				Usage:    "Registry base URL",
				OnlyOnce: true,
			},
			&cli.DurationFlag{
				Name:     timeoutFlag,
				Usage:    "Timeout for each clone, install and test command",
				OnlyOnce: true,
			},
			&cli.StringSliceFlag{
				Name:  ignoreFlag,
				Usage: "Package to exclude, added to the configured list. May be repeated",
			},
			&cli.StringFlag{
				Name:     branchFlag,
				Usage:    "Branch to clone instead of the default branch",
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	runID := uuid.NewString()
	ctx = ctxlog.With(ctx, "runId", runID)

	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}

	packages, err := config.ReadPackages(ctx, cfg.Packages)
	if err != nil {
		return err
	}

	ctxlog.Info(ctx, "starting batch", "packages", len(packages), "workspace", cfg.Workspace, "timeout", cfg.Timeout)

	res, err := newOrchestrator(cfg).Run(ctx, packages)
	if err != nil {
		return err
	}

	rw := report.New(cmd.Root().Writer)
	rw.Table(res)
	rw.Summary(res)

	if cfg.MetricsFile != "" {
		rec := metrics.NewRecorder(runID)
		rec.Record(res)

		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			ctxlog.Warn(ctx, "failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	ctxlog.Info(ctx, "results written", "path", cfg.Output)

	return nil
}

// loadConfig returns the configuration file, or the defaults, with the flags applied.
func loadConfig(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()

	if src := cmd.String(configFlag); src != "" {
		var err error
		if cfg, err = config.Load(ctx, src); err != nil {
			return nil, err
		}
	}

	for flag, dst := range map[string]*string{
		packagesFlag:    &cfg.Packages,
		workspaceFlag:   &cfg.Workspace,
		outFlag:         &cfg.Output,
		snapshotFlag:    &cfg.Snapshot,
		metricsFileFlag: &cfg.MetricsFile,
		registryFlag:    &cfg.Registry,
		branchFlag:      &cfg.Branch,
	} {
		if cmd.IsSet(flag) {
			*dst = cmd.String(flag)
		}
	}

	if cmd.IsSet(timeoutFlag) {
		cfg.Timeout = cmd.Duration(timeoutFlag).String()
	}

	cfg.Ignore = append(cfg.Ignore, cmd.StringSlice(ignoreFlag)...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newOrchestrator(cfg *config.Config) *batch.Orchestrator {
	fs := FsFactory()

	p := &pipeline.Pipeline{
		Runner:    NewRunner(cfg),
		Registry:  NewLookup(cfg),
		Ignore:    pipeline.NewIgnoreSet(cfg.Ignore...),
		Workspace: cfg.Workspace,
		Branch:    cfg.Branch,
		Clone:     cfg.Clone.StepCommand(),
		Install:   cfg.Install.StepCommand(),
		Test:      cfg.Test.StepCommand(),
		Fs:        fs,
	}

	o := &batch.Orchestrator{
		Pipeline:  p,
		Fs:        fs,
		Workspace: cfg.Workspace,
		Store:     batch.NewJSONFileStore(fs, cfg.Output),
	}

	if cfg.Snapshot != "" {
		o.Snapshot = batch.NewJSONFileStore(fs, cfg.Snapshot)
	}

	return o
}

