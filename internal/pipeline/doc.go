// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pipeline runs the per-package state machine.
//
// A package is either skipped without running anything, or it is cloned, installed and
// tested in that order. The first failing step ends the sequence: later steps depend on
// the earlier ones and are left unset rather than attempted. Cleanup of the package's
// working directory is attempted whenever cloning was attempted.
//
//	Pending -> Skipped
//	Pending -> Cloning -> Installing -> Testing -> CleaningUp -> Done
package pipeline
