package digital

// exec.go contains the subprocess layer that launches the simulator.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// Result is the captured outcome of one simulator invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes the simulator CLI with the given arguments. A non-zero
// exit code is reported in Result, not as an error; errors mean the
// process could not be run at all.
type Runner interface {
	Run(ctx context.Context, args []string) (Result, error)
}

// ExecRunner runs the simulator as `java -cp <jar> CLI <args>`.
type ExecRunner struct {
	logger  zerolog.Logger
	command []string
	timeout time.Duration
}

// NewExecRunner creates a runner for the simulator jar. A zero timeout
// lets each invocation run until it exits.
func NewExecRunner(logger zerolog.Logger, java, jar string, timeout time.Duration) *ExecRunner {
	if java == "" {
		java = "java"
	}
	return &ExecRunner{
		logger:  logger,
		command: []string{java, "-cp", jar, "CLI"},
		timeout: timeout,
	}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, args []string) (Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	argv := append(append([]string{}, r.command...), args...)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().
		Str("command", CommandLine(argv)).
		Msg("Executing simulator")

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			r.logger.Debug().
				Int("exit_code", res.ExitCode).
				Dur("duration", time.Since(start)).
				Msg("Simulator exited with non-zero code")
			return res, nil
		}
		if ctx.Err() != nil {
			return res, fmt.Errorf("simulator did not finish: %w", ctx.Err())
		}
		return res, fmt.Errorf("failed to execute simulator: %w", err)
	}

	r.logger.Debug().Dur("duration", time.Since(start)).Msg("Simulator finished")
	return res, nil
}
