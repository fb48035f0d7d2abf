package ui

import (
	"errors"
	"io"

	"github.com/manifoldco/promptui"
)

// Confirm asks a y/N question. in and out default to the process streams when nil.
// An interrupted prompt returns ErrCancelled; answering no returns false.
func Confirm(label string, in io.ReadCloser, out io.WriteCloser) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     in,
		Stdout:    out,
	}
	if _, err := prompt.Run(); err != nil {
		switch {
		case errors.Is(err, promptui.ErrAbort):
			return false, nil
		case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
			return false, ErrCancelled
		default:
			return false, err
		}
	}
	return true, nil
}
