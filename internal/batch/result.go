// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"slices"

	"github.com/matt-FFFFFF/pkgcanary/internal/pipeline"
)

// Result is the ordered list of records of a batch, one per input package.
type Result []pipeline.Record

// Summary counts records by status.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// Summarize counts the records in r by status.
func (r Result) Summarize() Summary {
	s := Summary{Total: len(r)}

	for rec := range slices.Values(r) {
		switch rec.Status() {
		case pipeline.StatusPassed:
			s.Passed++
		case pipeline.StatusFailed:
			s.Failed++
		case pipeline.StatusSkipped:
			s.Skipped++
		}
	}

	return s
}

// Names returns the package names in order.
func (r Result) Names() []string {
	names := make([]string, 0, len(r))
	for rec := range slices.Values(r) {
		names = append(names, rec.Name)
	}

	return names
}
