// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"sync"
	"time"
)

// Outcome is the settled result of one supervised command.
type Outcome struct {
	Passed        bool  `json:"passed"`
	ElapsedMillis int64 `json:"elapsedMillis"`
	TimedOut      bool  `json:"timedOut,omitempty"`
	ExitCode      int   `json:"-"` // -1 when the process did not exit on its own
	Err           error `json:"-"`
}

// Elapsed returns the elapsed time as a time.Duration.
func (o Outcome) Elapsed() time.Duration {
	return time.Duration(o.ElapsedMillis) * time.Millisecond
}

// settlement holds the first Outcome offered to it and ignores every later one.
type settlement struct {
	mu      sync.Mutex
	settled bool
	outcome Outcome
}

// settle records o if nothing has been settled yet and reports whether it did.
func (s *settlement) settle(o Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settled {
		return false
	}

	s.settled = true
	s.outcome = o

	return true
}

func (s *settlement) result() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.outcome, s.settled
}
