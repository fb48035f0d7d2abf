// Package declaration rolls per-package declaration files into a single types file.
package declaration

import (
	"context"

	"github.com/dosanma1/bundlekit/internal/toolchain"
)

// DefaultTool is the api-extractor invocation run in each package root.
var DefaultTool = toolchain.Tool{
	Command: "api-extractor",
	Args:    []string{"run", "--local", "--verbose"},
}

// Tool extracts the rolled-up declaration file of the package at root.
type Tool interface {
	Extract(ctx context.Context, root string) (toolchain.Counts, error)
}

// Runner is the subset of toolchain.Executor the extractor needs.
type Runner interface {
	Capture(ctx context.Context, dir string, tool toolchain.Tool, extra ...string) ([]byte, error)
}

// Extractor runs an external extractor command and parses its diagnostics.
type Extractor struct {
	runner Runner
	tool   toolchain.Tool
}

// NewExtractor creates an Extractor. An empty tool falls back to DefaultTool.
func NewExtractor(runner Runner, tool toolchain.Tool) *Extractor {
	if tool.Command == "" {
		tool = DefaultTool
	}
	return &Extractor{runner: runner, tool: tool}
}

// Extract runs the tool in root. Success is decided by the exit status alone.
func (e *Extractor) Extract(ctx context.Context, root string) (toolchain.Counts, error) {
	out, err := e.runner.Capture(ctx, root, e.tool)
	return toolchain.ParseCounts(out), err
}
