// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pipeline

// State is the position of a package in the pipeline.
type State int

const (
	// StatePending is the initial state.
	StatePending State = iota
	// StateSkipped is terminal: nothing was run.
	StateSkipped
	// StateCloning means the clone command is running.
	StateCloning
	// StateInstalling means the install command is running.
	StateInstalling
	// StateTesting means the test command is running.
	StateTesting
	// StateCleaningUp means the working directory is being removed.
	StateCleaningUp
	// StateDone is terminal: cleanup was attempted.
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSkipped:
		return "skipped"
	case StateCloning:
		return "cloning"
	case StateInstalling:
		return "installing"
	case StateTesting:
		return "testing"
	case StateCleaningUp:
		return "cleaning-up"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateSkipped || s == StateDone
}
