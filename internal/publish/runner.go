package publish

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CommandResult is the outcome of a single external command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is set when the command could not be started or was killed.
	Err error
}

// Success reports whether the command ran and exited zero.
func (r CommandResult) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Output joins stdout and stderr the way they are shown in logs.
func (r CommandResult) Output() string {
	out := strings.TrimRight(r.Stdout, "\n")
	if errOut := strings.TrimRight(r.Stderr, "\n"); errOut != "" {
		if out != "" {
			out += "\n"
		}
		out += "--- stderr ---\n" + errOut
	}
	return out
}

// Runner executes a command in a working directory.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) CommandResult
}

// ExecRunner runs commands with os/exec and captures their output.
type ExecRunner struct {
	// Timeout bounds each command when positive.
	Timeout time.Duration
	// Env is appended to the inherited environment.
	Env []string
}

func (e *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) CommandResult {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	// Benign-output matching relies on untranslated git messages.
	cmd.Env = append(append(os.Environ(), "LC_ALL=C"), e.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			res.Err = err
		}
	}
	return res
}
