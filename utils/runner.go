package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Command describes a single external tool invocation
type Command struct {
	Name   string
	Args   []string
	Env    []string // extra KEY=VALUE pairs appended to the current environment
	Dir    string
	Stdout io.Writer
	Stderr io.Writer

	// Secret values are masked when the command is logged
	Secrets []string
}

// String renders the command line for logs and error messages
func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	line := strings.Join(parts, " ")
	for _, s := range c.Secrets {
		if s != "" {
			line = strings.ReplaceAll(line, s, "****")
		}
	}
	return line
}

// Runner executes external commands. The packaging and upload code only talks
// to tools through this interface so tests can observe what would have run.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	Logger *zap.Logger
}

// NewExecRunner returns a runner that logs each invocation at debug level
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{Logger: logger}
}

func (r *ExecRunner) build(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

// Run executes the command, streaming output to the configured writers
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	r.Logger.Debug("running command", zap.String("cmd", c.String()), zap.String("dir", c.Dir))

	cmd := r.build(ctx, c)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", c.Name, err)
	}
	return nil
}

// Output executes the command and returns its trimmed stdout. Stderr is
// included in the error when the command fails.
func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	r.Logger.Debug("running command", zap.String("cmd", c.String()), zap.String("dir", c.Dir))

	cmd := r.build(ctx, c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w\n%s output: %s", c.Name, err, c.Name, strings.TrimSpace(stderr.String()))
	}
	return bytes.TrimSpace(out), nil
}
