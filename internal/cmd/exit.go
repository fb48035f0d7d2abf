package cmd

import "fmt"

// ExitError carries a process exit status from a command to main. Err is nil when
// the failure has already been reported on the terminal.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
