// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linewriter

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect() (*Writer, *[]string) {
	var got []string

	return New(func(line string) { got = append(got, line) }), &got
}

func TestWriter_Lines(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{
			name:   "single chunk with trailing newline",
			chunks: []string{"hello\n"},
			want:   []string{"hello"},
		},
		{
			name:   "only one trailing newline is stripped",
			chunks: []string{"hello\n\n"},
			want:   []string{"hello", ""},
		},
		{
			name:   "line split over chunks",
			chunks: []string{"npm ", "inst", "all\nadded 3 packages\n"},
			want:   []string{"npm install", "added 3 packages"},
		},
		{
			name:   "crlf endings",
			chunks: []string{"one\r\ntwo\r\n"},
			want:   []string{"one", "two"},
		},
		{
			name:   "partial line held back",
			chunks: []string{"done\nprogress 50%"},
			want:   []string{"done"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, got := collect()

			for _, c := range tt.chunks {
				n, err := w.Write([]byte(c))
				require.NoError(t, err)
				assert.Equal(t, len(c), n)
			}

			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestWriter_Flush(t *testing.T) {
	w, got := collect()

	_, _ = w.Write([]byte("first\nsecond"))
	assert.Equal(t, []string{"first"}, *got)

	w.Flush()
	assert.Equal(t, []string{"first", "second"}, *got)
	assert.Equal(t, 2, w.Lines())

	w.Flush()
	assert.Len(t, *got, 2, "flushing an empty buffer emits nothing")
}

func TestWriter_LastLine(t *testing.T) {
	w := New(nil)

	assert.Empty(t, w.LastLine(0))

	_, _ = w.Write([]byte("a fairly long line of test output\n"))
	assert.Equal(t, "a fairly long line of test output", w.LastLine(0))
	assert.Equal(t, "a fairly...", w.LastLine(11))
}

func TestWriter_Concurrent(t *testing.T) {
	var (
		mu    sync.Mutex
		count int
		wg    sync.WaitGroup
	)

	w := New(func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	for i := range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range 10 {
				_, _ = fmt.Fprintf(w, "writer %d line %d\n", i, j)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 100, count)
	assert.Equal(t, 100, w.Lines())
}

func TestWriter_LongLineIsCapped(t *testing.T) {
	w, got := collect()

	// Progress output rewrites one line with carriage returns and never ends it.
	chunk := strings.Repeat("x", 1000) + "\r"
	total := 0

	for total < 2*MaxLineLength+10 {
		_, _ = w.Write([]byte(chunk))
		total += len(chunk)
	}

	require.Len(t, *got, 2)

	for _, line := range *got {
		assert.Len(t, line, MaxLineLength)
	}

	w.Flush()
	require.Len(t, *got, 3)
	assert.Len(t, (*got)[2], total-2*MaxLineLength-1, "trailing carriage return is stripped")
}
