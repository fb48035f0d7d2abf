package declaration

import "fmt"

// BundleFailure reports a declaration rollup that did not succeed. It is not fatal
// to the surrounding build.
type BundleFailure struct {
	Target   string
	Errors   int
	Warnings int
	Err      error
}

func (e *BundleFailure) Error() string {
	return fmt.Sprintf("declaration bundling failed for %s: %d errors and %d warnings", e.Target, e.Errors, e.Warnings)
}

func (e *BundleFailure) Unwrap() error {
	return e.Err
}
