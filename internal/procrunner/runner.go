// Package procrunner runs child processes and turns unexpected exit codes
// into a structured error that callers can branch on.
package procrunner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// Result carries everything a subprocess produced.
type Result struct {
	Argv     []string
	Dir      string
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError is returned when a subprocess exits with a code other than the
// one the caller expected. It carries every input and output so that a
// caller can recognise a specific shape (e.g. git's exit-1-empty-stdout
// convention for a missing ref) and recover instead of propagating.
type ExitError struct {
	Argv     []string
	Dir      string
	Stdout   string
	Stderr   string
	ExitCode int
	Expected int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("unexpected exit code %d (expected %d) from %v in %q: %s",
		e.ExitCode, e.Expected, e.Argv, e.Dir, e.Stderr)
}

// Option configures a single Run call.
type Option func(*options)

type options struct {
	expectedExitCode int
}

// WithExpectedExitCode overrides the default expectation that a process
// exits 0.
func WithExpectedExitCode(code int) Option {
	return func(o *options) { o.expectedExitCode = code }
}

// Run executes argv[0] with argv[1:] in dir, capturing stdout and stderr in
// full. It returns *ExitError when the exit code does not match the
// expected one (0 unless overridden by WithExpectedExitCode). A failure to
// even start the process (binary missing, dir does not exist) is returned
// as a plain error, never as *ExitError.
func Run(ctx context.Context, dir string, argv []string, opts ...Option) (*Result, error) {
	o := options{expectedExitCode: 0}
	for _, opt := range opts {
		opt(&o)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("running %v in %q", argv, dir)
	err := cmd.Run()

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("starting %v in %q: %w", argv, dir, err)
		}
		exitCode = exitErr.ExitCode()
	}

	result := &Result{
		Argv:     argv,
		Dir:      dir,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}

	if exitCode != o.expectedExitCode {
		return result, &ExitError{
			Argv:     argv,
			Dir:      dir,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			ExitCode: exitCode,
			Expected: o.expectedExitCode,
		}
	}
	return result, nil
}
