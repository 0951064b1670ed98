// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linewriter

import (
	"bytes"
	"strings"
	"sync"
)

// MaxLineLength caps the bytes held for a line that has no newline yet.
// Longer output is emitted in pieces of this size.
const MaxLineLength = 64 * 1024

// Writer splits everything written to it into lines and hands each complete line,
// without its line ending, to a callback.
// A trailing line that has no newline is held until more data arrives or Flush is called.
// It is safe for concurrent use.
type Writer struct {
	emit     func(line string)
	partial  []byte
	lastLine string
	lines    int
	mu       sync.Mutex
}

// New creates a Writer that calls emit once per line.
// A nil emit discards lines but still tracks the last one.
func New(emit func(line string)) *Writer {
	if emit == nil {
		emit = func(string) {}
	}

	return &Writer{emit: emit}
}

// Write implements io.Writer. It never returns an error.
func (w *Writer) Write(p []byte) (int, error) {
	n := len(p)

	w.mu.Lock()
	defer w.mu.Unlock()

	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.partial = append(w.partial, p...)
			break
		}

		w.partial = append(w.partial, p[:i]...)
		w.emitPartialLocked()

		p = p[i+1:]
	}

	for len(w.partial) >= MaxLineLength {
		w.emitLocked(string(w.partial[:MaxLineLength]))
		w.partial = append(w.partial[:0], w.partial[MaxLineLength:]...)
	}

	return n, nil
}

// Flush emits any buffered partial line.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.partial) == 0 {
		return
	}

	w.emitPartialLocked()
}

// Must be called with the lock held.
func (w *Writer) emitPartialLocked() {
	line := strings.TrimSuffix(string(w.partial), "\r")
	w.partial = w.partial[:0]
	w.emitLocked(line)
}

// Must be called with the lock held.
func (w *Writer) emitLocked(line string) {
	w.lastLine = line
	w.lines++
	w.emit(line)
}

// LastLine returns the last line that was emitted.
// If maxLength > 0, it truncates the line to that length and appends "..." if it exceeds that length.
func (w *Writer) LastLine(maxLength int) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	result := w.lastLine
	if maxLength > 3 && len(result) > maxLength {
		result = result[:maxLength-3] + "..."
	}

	return result
}

// Lines returns the number of lines emitted so far.
func (w *Writer) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lines
}
