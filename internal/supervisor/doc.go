// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package supervisor runs a single external command with a hard wall-clock timeout.
//
// The process exit and the timeout timer race each other and whichever happens first settles
// the Outcome. Settlement happens exactly once: the losing event is observed and ignored.
// When the timer wins the process is sent an interrupt, and killed if it is still running
// after the kill grace period. The Outcome is never changed by how long that teardown takes.
//
// Output from the process is streamed line by line to the logger found in the context.
// Run never returns an error: every failure is represented in the Outcome.
package supervisor
