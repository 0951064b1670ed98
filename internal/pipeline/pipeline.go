// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/pkgcanary/internal/ctxlog"
	"github.com/matt-FFFFFF/pkgcanary/internal/registry"
	"github.com/matt-FFFFFF/pkgcanary/internal/supervisor"
	"github.com/spf13/afero"
)

const scopeSeparator = "__"

var (
	// ErrInvalidName is returned when a package name cannot be used as a directory name.
	ErrInvalidName = errors.New("invalid package name")
	// ErrLookup is returned when the repository metadata lookup fails.
	ErrLookup = errors.New("metadata lookup failed")
)

// IgnoreSet holds the names of packages that are never processed.
type IgnoreSet map[string]struct{}

// NewIgnoreSet builds an IgnoreSet from names.
func NewIgnoreSet(names ...string) IgnoreSet {
	s := make(IgnoreSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}

	return s
}

// Contains reports whether name is ignored.
func (s IgnoreSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// StepCommand is the executable and leading arguments of a step.
type StepCommand struct {
	Command string
	Args    []string
}

// Pipeline processes a single package at a time.
type Pipeline struct {
	Runner    supervisor.Runner
	Registry  registry.Lookup
	Ignore    IgnoreSet
	Workspace string   // Directory that package checkouts are created in.
	Branch    string   // Branch to clone; empty clones the remote default branch.
	Env       []string // Environment for every command; nil inherits the process environment.
	Clone     StepCommand
	Install   StepCommand
	Test      StepCommand
	Fs        afero.Fs // Used for cleanup; defaults to the OS filesystem.
}

// WorkDir returns the directory name used for a package checkout.
// Scoped names such as "@babel/core" become "@babel__core".
func WorkDir(name string) (string, error) {
	dir := strings.ReplaceAll(strings.TrimSpace(name), "/", scopeSeparator)

	switch {
	case dir == "", dir == ".", dir == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(dir, `\:`), strings.ContainsFunc(dir, isSpace):
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return dir, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Process runs the package through the pipeline and returns its record.
// Step failures are recorded on the record; an error is only returned when the package
// could not be processed at all, in which case the record is not terminal.
func (p *Pipeline) Process(ctx context.Context, name string) (*Record, error) {
	rec := NewRecord(name)
	logger := ctxlog.Logger(ctx)

	if p.Ignore.Contains(name) {
		logger.Info("skipping package because it is excluded")
		rec.skip(SkipExcluded, nil)

		return rec, nil
	}

	md, err := p.Registry.Lookup(ctx, name)
	if err != nil {
		return rec, errors.Join(ErrLookup, err)
	}

	repo := md.RepositoryURL()
	if repo == "" {
		logger.Info("skipping package because it has no repository")
		rec.skip(SkipNoRepository, nil)

		return rec, nil
	}

	rec.RepositoryURL = repo

	dir, err := WorkDir(name)
	if err != nil {
		return rec, err
	}

	p.run(ctx, rec, dir)

	return rec, nil
}

func (p *Pipeline) run(ctx context.Context, rec *Record, dir string) {
	rec.State = StateCloning

	// Deferred so that a panic in a step still removes the checkout.
	defer p.cleanup(ctx, rec, dir)

	cloneArgs := slices.Clone(p.Clone.Args)
	if p.Branch != "" {
		cloneArgs = append(cloneArgs, "--branch", p.Branch)
	}

	// The repository comes from registry metadata; "--" stops it being parsed as an option.
	cloneArgs = append(cloneArgs, "--", rec.RepositoryURL, dir)

	clone := p.step(ctx, StepClone, StepCommand{Command: p.Clone.Command, Args: cloneArgs}, p.Workspace)
	rec.CloneOutcome = &clone

	if !clone.Passed {
		return
	}

	pkgDir := filepath.Join(p.Workspace, dir)

	rec.State = StateInstalling
	install := p.step(ctx, StepInstall, p.Install, pkgDir)
	rec.InstallOutcome = &install

	if !install.Passed {
		return
	}

	rec.State = StateTesting
	test := p.step(ctx, StepTest, p.Test, pkgDir)
	rec.TestOutcome = &test
}

func (p *Pipeline) step(ctx context.Context, step Step, sc StepCommand, cwd string) supervisor.Outcome {
	return p.Runner.Run(ctx, supervisor.Command{
		Label: string(step),
		Path:  sc.Command,
		Args:  sc.Args,
		Cwd:   cwd,
		Env:   p.Env,
	})
}

// cleanup removes the package checkout. Failures are logged and swallowed.
func (p *Pipeline) cleanup(ctx context.Context, rec *Record, dir string) {
	rec.State = StateCleaningUp
	path := filepath.Join(p.Workspace, dir)

	if err := p.fs().RemoveAll(path); err != nil {
		ctxlog.Warn(ctx, "failed to clean up package directory", "path", path, "error", err)
	} else {
		ctxlog.Debug(ctx, "removed package directory", "path", path)
	}

	rec.State = StateDone
}

func (p *Pipeline) fs() afero.Fs {
	if p.Fs == nil {
		return afero.NewOsFs()
	}

	return p.Fs
}
