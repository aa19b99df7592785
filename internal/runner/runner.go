// Package runner executes external commands for the build pipeline and
// reports their outcome as values instead of errors.
package runner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hochfrequenz/observatory-deploy/internal/logging"
)

// Command is one external invocation
type Command struct {
	Args []string
	Dir  string
}

// String renders the command the way it would be typed
func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Result is the outcome of one invocation. ExitCode is -1 when the process
// could not be launched; Err then holds the launch error.
type Result struct {
	Command  Command
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Success reports whether the process ran and exited with status 0
func (r Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Diagnostic returns the text explaining a failure: captured stderr, or the
// launch error when nothing ran.
func (r Result) Diagnostic() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return strings.TrimSpace(r.Stderr)
}

// Runner runs commands. Failures are reported in the Result, never panicked
// or returned as errors.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// OutputCallback is called for each line of output
type OutputCallback func(stream, line string)

// Config configures the executor
type Config struct {
	Env     map[string]string
	Verbose bool
}

// Executor runs commands as subprocesses, one at a time, with no retries
// and no timeout.
type Executor struct {
	config Config
	logger *slog.Logger
}

// NewExecutor creates an executor logging through logger. A logger carried
// by the context passed to Run takes precedence.
func NewExecutor(config Config, logger *slog.Logger) *Executor {
	return &Executor{config: config, logger: logger}
}

// Run executes cmd in cmd.Dir and waits for it to exit
func (e *Executor) Run(ctx context.Context, cmd Command) Result {
	start := time.Now()
	res := Result{Command: cmd, ExitCode: -1}
	log := logging.FromContext(ctx, e.logger).With("component", "executor")

	var onOutput OutputCallback
	if e.config.Verbose {
		onOutput = func(stream, line string) {
			log.Debug("output", "stream", stream, "line", line)
		}
	}

	if len(cmd.Args) == 0 {
		res.Err = errors.New("empty command")
		logFailure(log, res)
		return res
	}

	log.Debug("starting command", "cmd", cmd.String(), "dir", cmd.Dir)

	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	c.Env = os.Environ()
	for k, v := range e.config.Env {
		c.Env = append(c.Env, k+"="+v)
	}

	stdout, err := c.StdoutPipe()
	if err != nil {
		res.Err = err
		logFailure(log, res)
		return res
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		res.Err = err
		logFailure(log, res)
		return res
	}

	if err := c.Start(); err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		logFailure(log, res)
		return res
	}

	var stdoutBuf, stderrBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		streamOutput(stdout, "stdout", &stdoutBuf, onOutput)
	}()
	go func() {
		defer wg.Done()
		streamOutput(stderr, "stderr", &stderrBuf, onOutput)
	}()
	wg.Wait()

	err = c.Wait()
	res.Duration = time.Since(start)
	res.Stdout = stdoutBuf.String()
	res.Stderr = stderrBuf.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.Err = err
		}
		logFailure(log, res)
		return res
	}

	res.ExitCode = 0
	log.Info("command succeeded", "cmd", cmd.String(), "dir", cmd.Dir, "duration", res.Duration.Round(time.Millisecond))
	return res
}

func logFailure(log *slog.Logger, res Result) {
	log.Error("command failed",
		"cmd", res.Command.String(),
		"dir", res.Command.Dir,
		"exit_code", res.ExitCode,
		"stderr", res.Diagnostic())
}

func streamOutput(r io.Reader, stream string, output *strings.Builder, callback OutputCallback) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		output.WriteString(line + "\n")
		if callback != nil {
			callback(stream, line)
		}
	}
	if scanner.Err() != nil {
		// keep the pipe drained so the child never blocks on a full buffer
		io.Copy(io.Discard, r)
	}
}
