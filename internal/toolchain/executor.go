// Package toolchain runs the external JavaScript tools a build depends on.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Tool is a configured command line.
type Tool struct {
	Command string   `yaml:"command" mapstructure:"command"`
	Args    []string `yaml:"args,omitempty" mapstructure:"args"`
}

// DefaultTypeCheck is the workspace-wide type-check invocation.
var DefaultTypeCheck = Tool{
	Command: "tsc",
	Args:    []string{"--noEmit", "--project", "tsconfig.json"},
}

// Executor handles tool execution relative to a workspace root.
type Executor struct {
	workspaceRoot string
	stdout        io.Writer
	stderr        io.Writer
	logger        zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithOutput redirects tool output. Both default to the process streams.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Executor) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a new tool executor.
func NewExecutor(workspaceRoot string, opts ...Option) *Executor {
	e := &Executor{
		workspaceRoot: workspaceRoot,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes tool in dir with output passed through to the terminal.
func (e *Executor) Run(ctx context.Context, dir string, tool Tool, extra ...string) error {
	cmd, err := e.command(ctx, dir, tool, extra)
	if err != nil {
		return err
	}
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	return e.wait(cmd, tool)
}

// Capture executes tool like Run and also returns the combined output.
func (e *Executor) Capture(ctx context.Context, dir string, tool Tool, extra ...string) ([]byte, error) {
	cmd, err := e.command(ctx, dir, tool, extra)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	cmd.Stdout = io.MultiWriter(e.stdout, &buf)
	cmd.Stderr = io.MultiWriter(e.stderr, &buf)
	err = e.wait(cmd, tool)
	return buf.Bytes(), err
}

// TypeCheck runs the workspace type-check from the workspace root.
func (e *Executor) TypeCheck(ctx context.Context, tool Tool) error {
	if tool.Command == "" {
		tool = DefaultTypeCheck
	}
	return e.Run(ctx, e.workspaceRoot, tool)
}

// EmitDeclarations writes declaration files for the package at root into outDir.
func (e *Executor) EmitDeclarations(ctx context.Context, root, outDir string) error {
	tool := Tool{
		Command: "tsc",
		Args:    []string{"--emitDeclarationOnly", "--declaration", "--declarationDir", outDir},
	}
	return e.Run(ctx, root, tool)
}

func (e *Executor) command(ctx context.Context, dir string, tool Tool, extra []string) (*exec.Cmd, error) {
	path, err := e.find(tool.Command, dir)
	if err != nil {
		return nil, err
	}
	args := append(append([]string{}, tool.Args...), extra...)

	e.logger.Debug().Str("tool", tool.Command).Str("dir", dir).Strs("args", args).Msg("exec")

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	return cmd, nil
}

func (e *Executor) wait(cmd *exec.Cmd, tool Tool) error {
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Tool: tool.Command, Code: exitErr.ExitCode(), Err: err}
	}
	return fmt.Errorf("%s: %w", tool.Command, err)
}

// find locates command in PATH, then in node_modules/.bin of dir and of the workspace root.
func (e *Executor) find(command, dir string) (string, error) {
	if filepath.IsAbs(command) {
		return command, nil
	}
	if path, err := exec.LookPath(command); err == nil {
		return path, nil
	}
	for _, base := range []string{dir, e.workspaceRoot} {
		if base == "" {
			continue
		}
		local := filepath.Join(base, "node_modules", ".bin", command)
		if info, err := os.Stat(local); err == nil && !info.IsDir() {
			return local, nil
		}
	}
	return "", fmt.Errorf("%s not found in PATH or node_modules/.bin", command)
}
