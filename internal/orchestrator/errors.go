package orchestrator

import "fmt"

// TypeCheckMessage is printed when the type-check gate fails.
const TypeCheckMessage = "Type Checking failed. Please fix the type issues above."

// TypeCheckFailure reports a failed global type-check. No target is built after it.
type TypeCheckFailure struct {
	Err error
}

func (e *TypeCheckFailure) Error() string {
	return fmt.Sprintf("type check failed: %v", e.Err)
}

func (e *TypeCheckFailure) Unwrap() error {
	return e.Err
}

// CompileFailure reports a variant whose compile failed. It aborts the run.
type CompileFailure struct {
	Target  string
	Variant string
	Err     error
}

func (e *CompileFailure) Error() string {
	return fmt.Sprintf("build failed for %s (%s): %v", e.Target, e.Variant, e.Err)
}

func (e *CompileFailure) Unwrap() error {
	return e.Err
}

// ExitCode returns the compiler's exit code, or 1 when it did not report a usable
// one. ExitTypeCheck and negative codes from signal kills map to 1.
func (e *CompileFailure) ExitCode() int {
	code := subprocessCode(e.Err)
	if code <= 0 || code == ExitTypeCheck {
		return ExitFailure
	}
	return code
}
