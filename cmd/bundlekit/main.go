package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dosanma1/bundlekit/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		code := 1
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
			err = exitErr.Err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(code)
	}
}
