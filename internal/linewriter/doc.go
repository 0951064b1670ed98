// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package linewriter provides an io.Writer that turns an arbitrary byte stream,
// such as the stdout pipe of a child process, into a sequence of lines.
package linewriter
