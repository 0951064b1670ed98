// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/matt-FFFFFF/pkgcanary/internal/ctxlog"
	"github.com/matt-FFFFFF/pkgcanary/internal/linewriter"
)

const (
	// DefaultTimeout is the per-command timeout used when none is configured.
	DefaultTimeout = 5 * time.Minute
	// DefaultKillGrace is how long an interrupted process has to exit before it is killed.
	DefaultKillGrace = 10 * time.Second

	lastLineMax = 200
)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrTimeoutExceeded is returned when the command did not exit before its timeout.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrNonZeroExit is returned when the process exited with a non-zero exit code.
	ErrNonZeroExit = errors.New("process exited with non-zero exit code")
	// ErrCancelled is returned when the context was cancelled while the command was running.
	ErrCancelled = errors.New("command cancelled")
)

// Command describes one external command invocation.
type Command struct {
	Label   string        // Step name used in log output, e.g. "install".
	Path    string        // Executable name or path, resolved through PATH.
	Args    []string      // Arguments, not including the executable itself.
	Cwd     string        // Working directory.
	Env     []string      // Environment in KEY=VALUE form; nil inherits the current process environment.
	Timeout time.Duration // Overrides the supervisor timeout when positive.
}

// Runner runs commands and reports their outcome.
type Runner interface {
	Run(ctx context.Context, c Command) Outcome
}

var _ Runner = (*Supervisor)(nil)

// Supervisor runs commands with a hard timeout.
// The zero value uses DefaultTimeout, DefaultKillGrace and the wall clock.
type Supervisor struct {
	Timeout   time.Duration
	KillGrace time.Duration
	Now       func() time.Time
}

// New returns a Supervisor with the given timeout and kill grace.
func New(timeout, killGrace time.Duration) *Supervisor {
	return &Supervisor{
		Timeout:   timeout,
		KillGrace: killGrace,
	}
}

type exitStatus struct {
	code int
	err  error
}

// Run starts the command and blocks until its Outcome is settled and the process is gone.
func (s *Supervisor) Run(ctx context.Context, c Command) Outcome {
	timeout := s.timeoutFor(c)
	logger := ctxlog.Logger(ctx).With("step", c.label())

	logger.Info("running command", "path", c.Path, "args", c.Args, "cwd", c.Cwd, "timeout", timeout.String())

	stdout := linewriter.New(func(line string) { logger.Info(line, "stream", "stdout") })
	stderr := linewriter.New(func(line string) { logger.Warn(line, "stream", "stderr") })

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Cwd
	cmd.Env = c.Env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Bounds how long Wait blocks on pipes held open by grandchildren.
	cmd.WaitDelay = s.killGrace()

	var st settlement

	exited := make(chan exitStatus, 1)
	start := s.now()
	timer := time.NewTimer(timeout)

	defer timer.Stop()

	if err := cmd.Start(); err != nil {
		err = errors.Join(ErrCouldNotStartProcess, err)
		logger.Error("process error", "error", err)
		exited <- exitStatus{code: -1, err: err}
	} else {
		logger.Debug("process started", "pid", cmd.Process.Pid)

		go func() {
			err := cmd.Wait()
			if errors.Is(err, exec.ErrWaitDelay) {
				// The process exited but a descendant kept its output open.
				logger.Warn("output still open after process exit", "error", err)
				err = nil
			}

			exited <- exitStatus{code: cmd.ProcessState.ExitCode(), err: err}
		}()
	}

	select {
	case es := <-exited:
		st.settle(s.exitOutcome(start, es))

	case <-timer.C:
		if st.settle(s.failOutcome(start, true, ErrTimeoutExceeded)) {
			logger.Warn("command timed out, interrupting process", "timeout", timeout.String())
		}

		s.teardown(logger, cmd, exited, start, &st)

	case <-ctx.Done():
		if st.settle(s.failOutcome(start, false, errors.Join(ErrCancelled, ctx.Err()))) {
			logger.Warn("context done, interrupting process")
		}

		s.teardown(logger, cmd, exited, start, &st)
	}

	stdout.Flush()
	stderr.Flush()

	out, _ := st.result()
	logger.Info("command finished",
		"passed", out.Passed,
		"elapsedMillis", out.ElapsedMillis,
		"exitCode", out.ExitCode,
		"timedOut", out.TimedOut,
		"outputLines", stdout.Lines()+stderr.Lines(),
	)

	if !out.Passed && stderr.Lines() > 0 {
		logger.Debug("last error output", "line", stderr.LastLine(lastLineMax))
	}

	return out
}

// teardown interrupts the process, escalates to a kill after the grace period and
// waits for it to exit. The exit is offered to the settlement, which ignores it.
func (s *Supervisor) teardown(
	logger *slog.Logger,
	cmd *exec.Cmd,
	exited <-chan exitStatus,
	start time.Time,
	st *settlement,
) {
	var es exitStatus

	switch {
	case cmd.Process == nil:
		es = <-exited
	default:
		if err := interrupt(cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logger.Warn("failed to interrupt process", "pid", cmd.Process.Pid, "error", err)
		}

		grace := time.NewTimer(s.killGrace())
		defer grace.Stop()

		select {
		case es = <-exited:
		case <-grace.C:
			logger.Warn("process still running after interrupt, killing", "pid", cmd.Process.Pid)
			killPs(logger, cmd.Process)

			es = <-exited
		}
	}

	if !st.settle(s.exitOutcome(start, es)) {
		logger.Debug("ignoring process exit after settlement", "exitCode", es.code)
	}
}

func (s *Supervisor) exitOutcome(start time.Time, es exitStatus) Outcome {
	out := Outcome{
		ElapsedMillis: s.now().Sub(start).Milliseconds(),
		ExitCode:      es.code,
		Err:           es.err,
	}

	var exitErr *exec.ExitError

	switch {
	case es.err == nil && es.code == 0:
		out.Passed = true
	case es.err == nil, errors.As(es.err, &exitErr):
		out.Err = errors.Join(ErrNonZeroExit, es.err)
	}

	return out
}

func (s *Supervisor) failOutcome(start time.Time, timedOut bool, err error) Outcome {
	return Outcome{
		ElapsedMillis: s.now().Sub(start).Milliseconds(),
		TimedOut:      timedOut,
		ExitCode:      -1,
		Err:           err,
	}
}

func (s *Supervisor) timeoutFor(c Command) time.Duration {
	switch {
	case c.Timeout > 0:
		return c.Timeout
	case s.Timeout > 0:
		return s.Timeout
	default:
		return DefaultTimeout
	}
}

func (s *Supervisor) killGrace() time.Duration {
	if s.KillGrace > 0 {
		return s.KillGrace
	}

	return DefaultKillGrace
}

func (s *Supervisor) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

func (c Command) label() string {
	if c.Label == "" {
		return c.Path
	}

	return c.Label
}

// interrupt asks the process to stop. Windows has no interrupt signal for child processes.
func interrupt(p *os.Process) error {
	if runtime.GOOS == "windows" {
		return p.Kill() //nolint:wrapcheck
	}

	return p.Signal(os.Interrupt) //nolint:wrapcheck
}

func killPs(logger *slog.Logger, p *os.Process) {
	if err := p.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			logger.Debug("process already done", "pid", p.Pid)
			return
		}

		logger.Error("process kill error", "pid", p.Pid, "error", err)

		return
	}

	logger.Info("process killed", "pid", p.Pid)
}
