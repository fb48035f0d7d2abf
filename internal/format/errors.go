package format

import (
	"fmt"
	"strings"
)

// InvalidFormatError is returned for a format token outside the known set.
type InvalidFormatError struct {
	Token string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format: %s", e.Token)
}

// DependentFormatError is returned when a browser format is requested without esm.
type DependentFormatError struct {
	Requested []string
}

func (e *DependentFormatError) Error() string {
	return fmt.Sprintf("format %q needs to be built together with \"esm\" (e.g. --formats esm/browser)",
		strings.Join(e.Requested, "/"))
}
