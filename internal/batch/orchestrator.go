// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/pkgcanary/internal/ctxlog"
	"github.com/matt-FFFFFF/pkgcanary/internal/pipeline"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
)

var (
	// ErrPrepareWorkspace is returned when the workspace cannot be recreated. No package is processed.
	ErrPrepareWorkspace = errors.New("failed to prepare workspace")
	// ErrPersistResults is returned when the final result cannot be saved.
	ErrPersistResults = errors.New("failed to persist results")
	// ErrDuplicatePackage is returned when the input list names a package twice.
	ErrDuplicatePackage = errors.New("duplicate package in input")
	// ErrPackagePanic is recorded when processing a package panics.
	ErrPackagePanic = errors.New("package processing panicked")
	// ErrIncompleteRecord is recorded when the pipeline returns a record that is not terminal.
	ErrIncompleteRecord = errors.New("pipeline returned an incomplete record")
)

const workspaceMode = 0o755

// Processor turns a package name into a terminal record.
type Processor interface {
	Process(ctx context.Context, name string) (*pipeline.Record, error)
}

// Orchestrator runs packages through a Processor sequentially.
type Orchestrator struct {
	Pipeline  Processor
	Fs        afero.Fs
	Workspace string
	Store     Store // Receives the final result.
	Snapshot  Store // Optional, receives the partial result after every package.
}

// Run prepares the workspace, processes every package in order and flushes the result to the store.
// The returned error is only non-nil for failures that affect the whole batch.
func (o *Orchestrator) Run(ctx context.Context, packages []string) (Result, error) {
	if err := checkUnique(packages); err != nil {
		return nil, err
	}

	if err := o.prepareWorkspace(ctx); err != nil {
		return nil, err
	}

	agg := NewAggregator(len(packages))

	for i, name := range slices.All(packages) {
		pctx := ctxlog.With(ctx, "package", name)
		ctxlog.Info(pctx, "processing package", "index", i+1, "total", len(packages))

		rec := o.processOne(pctx, name)
		if err := agg.Append(rec); err != nil {
			// Not reachable with a well behaved Processor: names are unique and the record is terminal.
			ctxlog.Error(pctx, "could not record package result", "error", err)
			rec = pipeline.SkippedRecord(name, pipeline.SkipError, err)
			_ = agg.Append(rec)
		}

		ctxlog.Info(pctx, "package finished", "status", rec.Status().String(), "failedStep", string(rec.FailedStep()))
		o.saveSnapshot(pctx, agg)
	}

	res, err := agg.Flush(ctx, o.Store)
	if err != nil {
		return res, pkgerrors.WithStack(errors.Join(ErrPersistResults, err))
	}

	s := res.Summarize()
	ctxlog.Info(ctx, "batch finished", "total", s.Total, "passed", s.Passed, "failed", s.Failed, "skipped", s.Skipped)

	return res, nil
}

func (o *Orchestrator) prepareWorkspace(ctx context.Context) error {
	fs := o.fs()

	switch ws := filepath.Clean(o.Workspace); {
	case o.Workspace == "", ws == ".", ws == string(filepath.Separator), ws == "..",
		strings.HasPrefix(ws, ".."+string(filepath.Separator)):
		return pkgerrors.WithStack(errors.Join(ErrPrepareWorkspace, fmt.Errorf("refusing to remove workspace %q", o.Workspace)))
	}

	if err := fs.RemoveAll(o.Workspace); err != nil {
		return pkgerrors.WithStack(errors.Join(ErrPrepareWorkspace, err))
	}

	if err := fs.MkdirAll(o.Workspace, workspaceMode); err != nil {
		return pkgerrors.WithStack(errors.Join(ErrPrepareWorkspace, err))
	}

	ctxlog.Debug(ctx, "workspace prepared", "path", o.Workspace)

	return nil
}

// processOne never fails: errors and panics become a skipped record with reason "error".
func (o *Orchestrator) processOne(ctx context.Context, name string) (rec *pipeline.Record) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrPackagePanic, r)
			ctxlog.Error(ctx, "package processing panicked", "error", err, "stack", string(debug.Stack()))
			rec = pipeline.SkippedRecord(name, pipeline.SkipError, err)
		}
	}()

	var err error

	rec, err = o.Pipeline.Process(ctx, name)

	switch {
	case err != nil:
		ctxlog.Error(ctx, "package processing failed", "error", err)
		return pipeline.SkippedRecord(name, pipeline.SkipError, err)
	case rec == nil || !rec.State.Terminal():
		ctxlog.Error(ctx, "package processing failed", "error", ErrIncompleteRecord)
		return pipeline.SkippedRecord(name, pipeline.SkipError, ErrIncompleteRecord)
	}

	return rec
}

func (o *Orchestrator) saveSnapshot(ctx context.Context, agg *Aggregator) {
	if o.Snapshot == nil {
		return
	}

	if err := o.Snapshot.Save(ctx, agg.Snapshot()); err != nil {
		ctxlog.Warn(ctx, "failed to write results snapshot", "error", err)
	}
}

func (o *Orchestrator) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}

	return o.Fs
}

func checkUnique(packages []string) error {
	seen := make(map[string]struct{}, len(packages))
	for _, name := range packages {
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePackage, name)
		}

		seen[name] = struct{}{}
	}

	return nil
}
