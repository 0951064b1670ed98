// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pipeline

import (
	"github.com/matt-FFFFFF/pkgcanary/internal/supervisor"
)

// SkipReason explains why a package reached the Skipped state.
type SkipReason string

const (
	// SkipExcluded means the package is in the ignore set.
	SkipExcluded SkipReason = "excluded"
	// SkipNoRepository means the registry has no repository for the package.
	SkipNoRepository SkipReason = "noRepository"
	// SkipError means processing the package failed unexpectedly.
	SkipError SkipReason = "error"
)

// Step names a pipeline step.
type Step string

const (
	// StepClone clones the repository.
	StepClone Step = "clone"
	// StepInstall installs dependencies.
	StepInstall Step = "install"
	// StepTest runs the test command.
	StepTest Step = "test"
)

// Record is the result for one package.
// If Skipped is true no outcome is set. InstallOutcome is only set after a passing clone
// and TestOutcome only after a passing install.
type Record struct {
	Name           string              `json:"name"`
	Skipped        bool                `json:"skipped"`
	SkipReason     SkipReason          `json:"skipReason,omitempty"`
	RepositoryURL  string              `json:"repositoryUrl,omitempty"`
	CloneOutcome   *supervisor.Outcome `json:"cloneOutcome,omitempty"`
	InstallOutcome *supervisor.Outcome `json:"installOutcome,omitempty"`
	TestOutcome    *supervisor.Outcome `json:"testOutcome,omitempty"`
	Error          string              `json:"error,omitempty"`
	State          State               `json:"-"`
}

// NewRecord returns a pending record for name.
func NewRecord(name string) *Record {
	return &Record{Name: name, State: StatePending}
}

// SkippedRecord returns a terminal skipped record.
// For SkipError the error message is kept on the record.
func SkippedRecord(name string, reason SkipReason, err error) *Record {
	r := NewRecord(name)
	r.skip(reason, err)

	return r
}

func (r *Record) skip(reason SkipReason, err error) {
	r.Skipped = true
	r.SkipReason = reason
	r.CloneOutcome = nil
	r.InstallOutcome = nil
	r.TestOutcome = nil
	r.State = StateSkipped

	if err != nil {
		r.Error = err.Error()
	}
}

// Status is the overall fate of a package.
type Status int

const (
	// StatusSkipped means no step ran.
	StatusSkipped Status = iota
	// StatusPassed means install and test both passed.
	StatusPassed
	// StatusFailed means a step failed or did not run to completion.
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status derives the package status from its outcomes.
func (r *Record) Status() Status {
	switch {
	case r.Skipped:
		return StatusSkipped
	case r.InstallOutcome != nil && r.InstallOutcome.Passed &&
		r.TestOutcome != nil && r.TestOutcome.Passed:
		return StatusPassed
	default:
		return StatusFailed
	}
}

// FailedStep returns the first step that did not pass, or "" if none failed.
func (r *Record) FailedStep() Step {
	if r.Skipped {
		return ""
	}

	steps := []struct {
		step Step
		o    *supervisor.Outcome
	}{
		{StepClone, r.CloneOutcome},
		{StepInstall, r.InstallOutcome},
		{StepTest, r.TestOutcome},
	}

	for _, s := range steps {
		if s.o == nil || !s.o.Passed {
			return s.step
		}
	}

	return ""
}
