// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package batch runs a list of packages through a pipeline, one at a time,
// and accumulates one record per package in input order.
//
// The Orchestrator owns the workspace: it is removed and recreated before the
// first package is processed. A failure to do so aborts the batch before any
// record exists. Errors and panics raised while processing a single package
// are converted into skipped records with reason "error" so that the batch
// always produces exactly one record per input package.
package batch
