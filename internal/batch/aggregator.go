// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/matt-FFFFFF/pkgcanary/internal/pipeline"
)

var (
	// ErrDuplicateRecord is returned when a record with the same name was already appended.
	ErrDuplicateRecord = errors.New("duplicate package record")
	// ErrAlreadyFlushed is returned when Flush is called more than once.
	ErrAlreadyFlushed = errors.New("results already flushed")
	// ErrNotTerminal is returned when appending a record that has not finished processing.
	ErrNotTerminal = errors.New("package record is not in a terminal state")
)

// Store persists a batch result.
type Store interface {
	Save(ctx context.Context, result Result) error
}

// Aggregator is an append-only, ordered collection of package records.
type Aggregator struct {
	mu      sync.Mutex
	records []pipeline.Record
	names   map[string]struct{}
	flushed bool
}

// NewAggregator returns an empty Aggregator with room for size records.
func NewAggregator(size int) *Aggregator {
	return &Aggregator{
		records: make([]pipeline.Record, 0, size),
		names:   make(map[string]struct{}, size),
	}
}

// Append adds a terminal record. The record is copied so later changes by the caller are not visible.
func (a *Aggregator) Append(rec *pipeline.Record) error {
	if !rec.State.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrNotTerminal, rec.Name, rec.State)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.flushed {
		return ErrAlreadyFlushed
	}

	if _, ok := a.names[rec.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, rec.Name)
	}

	a.names[rec.Name] = struct{}{}
	a.records = append(a.records, *rec)

	return nil
}

// Len returns the number of records appended so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.records)
}

// Snapshot returns a copy of the records appended so far.
func (a *Aggregator) Snapshot() Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	return slices.Clone(a.records)
}

// Flush persists the complete result to store. It succeeds at most once;
// after a failed attempt the aggregator may be flushed again.
func (a *Aggregator) Flush(ctx context.Context, store Store) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.flushed {
		return nil, ErrAlreadyFlushed
	}

	res := slices.Clone(a.records)
	if err := store.Save(ctx, res); err != nil {
		return res, err
	}

	a.flushed = true

	return res, nil
}
