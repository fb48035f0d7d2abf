package target

import "fmt"

// UnknownTargetError is returned when a requested name matches no package.
type UnknownTargetError struct {
	Name string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("target %q not found", e.Name)
}
