//go:build windows
// +build windows

// Package xos provides atomic file writes for generated build files.
// On Windows the rename is done within the target directory.
package xos

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// WriteFile writes data to the named file via a temp file in the same directory.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	return WriteReader(filename, bytes.NewReader(data), perm)
}

// WriteReader copies r into the named file via a temp file in the same directory.
func WriteReader(filename string, r io.Reader, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tempName)
		}
	}()

	if _, err := io.Copy(tempFile, r); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tempName, perm); err != nil {
		return err
	}

	// rename does not replace an existing file on Windows
	if _, err := os.Stat(filename); err == nil {
		if err := os.Remove(filename); err != nil {
			return err
		}
	}
	if err := os.Rename(tempName, filename); err != nil {
		return err
	}

	success = true
	return nil
}

// RemovePaths removes each path and everything below it. Missing paths are ignored.
func RemovePaths(paths ...string) error {
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return nil
}
