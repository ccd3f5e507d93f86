// Package agent launches an external agent process and exposes its
// "values" stream as a trace.Agent.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/exec"

	"github.com/mark3labs/agenttrace/internal/ingest"
	"github.com/mark3labs/agenttrace/internal/logger"
	"github.com/mark3labs/agenttrace/internal/trace"
)

// ErrNoCommand is returned when a Runner has no command configured.
var ErrNoCommand = errors.New("no agent command configured")

// Runner runs one agent subprocess per Stream call.
//
// Protocol: the initial input is written to the process's stdin as a single
// JSON line ({"input": {...}, "stream_mode": "values"}) and stdin is closed.
// The process writes one JSON snapshot per line to stdout.
type Runner struct {
	command string
	args    []string
	workDir string
	env     []string
	stderr  io.Writer
}

// RunnerConfig holds configuration for creating a new Runner.
type RunnerConfig struct {
	Command string    // Executable to run (looked up in PATH)
	Args    []string  // Arguments passed to the command
	WorkDir string    // Working directory (default: current directory)
	Env     []string  // Extra KEY=VALUE pairs appended to os.Environ()
	Stderr  io.Writer // Destination for the process's stderr (default: os.Stderr)
}

// NewRunner creates a new Runner instance.
func NewRunner(cfg RunnerConfig) *Runner {
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Runner{
		command: cfg.Command,
		args:    cfg.Args,
		workDir: cfg.WorkDir,
		env:     cfg.Env,
		stderr:  stderr,
	}
}

// Stream implements trace.Agent. The process is killed when ctx is
// cancelled or the consumer stops pulling snapshots. A non-zero exit is
// reported as the final element of the sequence.
func (r *Runner) Stream(ctx context.Context, input *trace.Snapshot, mode trace.StreamMode) iter.Seq2[*trace.Snapshot, error] {
	return func(yield func(*trace.Snapshot, error) bool) {
		if r.command == "" {
			yield(nil, ErrNoCommand)
			return
		}

		payload, err := ingest.EncodeInput(input, mode)
		if err != nil {
			yield(nil, err)
			return
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		logger.Debug("Starting agent process: %s %v", r.command, r.args)
		cmd := exec.CommandContext(runCtx, r.command, r.args...)
		cmd.Dir = r.workDir
		cmd.Env = append(os.Environ(), r.env...)
		cmd.Stdin = bytes.NewReader(append(payload, '\n'))
		cmd.Stderr = r.stderr

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			yield(nil, fmt.Errorf("failed to create stdout pipe: %w", err))
			return
		}

		if err := cmd.Start(); err != nil {
			yield(nil, fmt.Errorf("failed to start agent: %w", err))
			return
		}

		for snap, err := range ingest.Snapshots(runCtx, stdout) {
			if err != nil {
				// a line cut short by the kill is not a decode failure
				if ctxErr := runCtx.Err(); ctxErr != nil {
					_ = cmd.Wait()
					logger.Debug("Agent stream cancelled: %v", err)
					yield(nil, ctxErr)
					return
				}
				cancel()
				_ = cmd.Wait()
				logger.Error("Agent output could not be decoded: %v", err)
				yield(nil, err)
				return
			}
			if !yield(snap, nil) {
				logger.Debug("Consumer stopped, killing agent process")
				cancel()
				_ = cmd.Wait()
				return
			}
		}

		logger.Debug("Waiting for agent process to exit")
		if err := cmd.Wait(); err != nil {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}
			logger.Error("Agent exited with error: %v", err)
			yield(nil, fmt.Errorf("agent process failed: %w", err))
			return
		}
		logger.Debug("Agent process completed successfully")
	}
}
