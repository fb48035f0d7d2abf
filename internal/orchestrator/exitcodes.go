package orchestrator

import (
	"errors"

	"github.com/dosanma1/bundlekit/internal/compiler"
	"github.com/dosanma1/bundlekit/internal/toolchain"
)

// Process exit codes.
const (
	ExitSuccess = 0
	// ExitFailure covers validation errors and declaration bundling failures.
	ExitFailure = 1
	// ExitTypeCheck is reserved for a failed type-check gate.
	ExitTypeCheck = 4
)

// ExitCodeFor maps an error to its exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var tc *TypeCheckFailure
	if errors.As(err, &tc) {
		return ExitTypeCheck
	}

	var cf *CompileFailure
	if errors.As(err, &cf) {
		return cf.ExitCode()
	}
	return ExitFailure
}

// subprocessCode returns the non-zero exit code carried by err, if any.
func subprocessCode(err error) int {
	var ce *compiler.ExitError
	if errors.As(err, &ce) && ce.Code != 0 {
		return ce.Code
	}
	if code := toolchain.ExitCode(err); code != 0 {
		return code
	}
	return 0
}
