// Package compiler turns composed variants into artifacts through a pluggable backend.
package compiler

import (
	"context"
	"fmt"

	"github.com/dosanma1/bundlekit/internal/compose"
)

// Invocation is everything a backend needs to build one variant.
type Invocation struct {
	// Root is the package root; relative paths resolve against it.
	Root    string          `json:"root"`
	Variant compose.Variant `json:"variant"`
}

// Compiler is the interface every compiler backend implements.
type Compiler interface {
	// Name returns the backend identifier used in configuration (e.g. "esbuild").
	Name() string

	// Compile builds the invocation's variant and blocks until it finishes.
	Compile(ctx context.Context, inv Invocation) error
}

// DeclarationEmitter writes declaration files for a package. Backends that cannot
// emit declarations themselves delegate the declarations variant to it.
type DeclarationEmitter interface {
	EmitDeclarations(ctx context.Context, root, outDir string) error
}

// ExitError reports a compiler that failed with an exit status.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compiler exited with code %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("compiler exited with code %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
