package compiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dosanma1/bundlekit/pkg/xos"
)

// ExecName is the configuration name of the subprocess backend.
const ExecName = "exec"

// Exec hands each invocation to an external compiler command. The invocation is
// written as JSON and passed as "--config <file>" after the configured arguments.
type Exec struct {
	command string
	args    []string
	stdout  io.Writer
	stderr  io.Writer
	logger  zerolog.Logger
}

// NewExec creates the subprocess backend.
func NewExec(command string, args []string, logger zerolog.Logger) *Exec {
	return &Exec{
		command: command,
		args:    args,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		logger:  logger,
	}
}

// WithOutput redirects the subprocess output.
func (e *Exec) WithOutput(stdout, stderr io.Writer) *Exec {
	e.stdout = stdout
	e.stderr = stderr
	return e
}

// Name returns the backend identifier.
func (e *Exec) Name() string {
	return ExecName
}

// Compile writes the invocation file and runs the command.
func (e *Exec) Compile(ctx context.Context, inv Invocation) error {
	if e.command == "" {
		return fmt.Errorf("exec compiler: no command configured")
	}

	dir, err := os.MkdirTemp("", "bundlekit-")
	if err != nil {
		return fmt.Errorf("failed to create invocation dir: %w", err)
	}
	defer os.RemoveAll(dir)

	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode invocation: %w", err)
	}
	configPath := filepath.Join(dir, inv.Variant.Target+"."+inv.Variant.Name()+".json")
	if err := xos.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write invocation: %w", err)
	}

	args := append(append([]string{}, e.args...), "--config", configPath)
	e.logger.Debug().Str("command", e.command).Strs("args", args).Msg("exec compiler")

	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Dir = inv.Root
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Err: err}
		}
		return fmt.Errorf("%s: %w", e.command, err)
	}
	return nil
}
