// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matt-FFFFFF/pkgcanary/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_JSONShape(t *testing.T) {
	rec := Record{
		Name:           "c",
		RepositoryURL:  "https://github.com/example/c",
		CloneOutcome:   &supervisor.Outcome{Passed: true, ElapsedMillis: 10},
		InstallOutcome: &supervisor.Outcome{Passed: true, ElapsedMillis: 2000},
		TestOutcome:    &supervisor.Outcome{Passed: false, ElapsedMillis: 100, TimedOut: true},
		State:          StateDone,
	}

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "c",
		"skipped": false,
		"repositoryUrl": "https://github.com/example/c",
		"cloneOutcome": {"passed": true, "elapsedMillis": 10},
		"installOutcome": {"passed": true, "elapsedMillis": 2000},
		"testOutcome": {"passed": false, "elapsedMillis": 100, "timedOut": true}
	}`, string(b))
}

func TestSkippedRecord(t *testing.T) {
	rec := SkippedRecord("x", SkipError, errors.New("lookup failed"))
	assert.True(t, rec.Skipped)
	assert.Equal(t, SkipError, rec.SkipReason)
	assert.Equal(t, "lookup failed", rec.Error)
	assert.Equal(t, StateSkipped, rec.State)
	assert.Nil(t, rec.CloneOutcome)
	assert.Equal(t, StatusSkipped, rec.Status())
	assert.Empty(t, rec.FailedStep())

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","skipped":true,"skipReason":"error","error":"lookup failed"}`, string(b))
}

func TestRecord_Status(t *testing.T) {
	pass := &supervisor.Outcome{Passed: true}
	fail := &supervisor.Outcome{Passed: false}

	cases := []struct {
		name   string
		rec    Record
		status Status
		step   Step
	}{
		{"all passed", Record{CloneOutcome: pass, InstallOutcome: pass, TestOutcome: pass}, StatusPassed, ""},
		{"clone failed", Record{CloneOutcome: fail}, StatusFailed, StepClone},
		{"install failed", Record{CloneOutcome: pass, InstallOutcome: fail}, StatusFailed, StepInstall},
		{"test failed", Record{CloneOutcome: pass, InstallOutcome: pass, TestOutcome: fail}, StatusFailed, StepTest},
		{"skipped", Record{Skipped: true}, StatusSkipped, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.rec.Status())
			assert.Equal(t, tc.step, tc.rec.FailedStep())
		})
	}
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateSkipped.Terminal())
	assert.True(t, StateDone.Terminal())
	assert.False(t, StateCleaningUp.Terminal())
	assert.Equal(t, "cleaning-up", StateCleaningUp.String())
}
