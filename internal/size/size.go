// Package size measures the raw, gzip and brotli sizes of production browser bundles.
package size

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"

	"github.com/dosanma1/bundlekit/internal/format"
	"github.com/dosanma1/bundlekit/internal/target"
)

// Report holds the sizes of one artifact in bytes.
type Report struct {
	Target string `json:"target" yaml:"target"`
	File   string `json:"file" yaml:"file"`
	Path   string `json:"path" yaml:"path"`
	Raw    int    `json:"raw" yaml:"raw"`
	Gzip   int    `json:"gzip" yaml:"gzip"`
	Brotli int    `json:"brotli" yaml:"brotli"`
}

// Reporter measures artifacts.
type Reporter struct{}

// NewReporter creates a Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Artifacts returns the files measured for t, modern bundle first.
func Artifacts(t target.BuildTarget) []string {
	return []string{
		t.Artifact(format.BrowserModern.Spec().Suffix),
		t.Artifact(format.Browser.Spec().Suffix),
	}
}

// Report measures the browser artifacts of every target in order. Missing files
// are skipped. Unreadable artifacts are collected into the returned error while
// the remaining ones are still measured.
func (r *Reporter) Report(targets []target.BuildTarget) ([]Report, error) {
	var (
		reports []Report
		errs    []error
	)
	for _, t := range targets {
		for _, path := range Artifacts(t) {
			rep, err := Measure(path)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
				continue
			}
			rep.Target = t.Name
			reports = append(reports, rep)
		}
	}
	return reports, errors.Join(errs...)
}

// Measure reads path and computes its sizes.
func Measure(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	gz, err := gzipSize(data)
	if err != nil {
		return Report{}, fmt.Errorf("gzip %s: %w", path, err)
	}
	br, err := brotliSize(data)
	if err != nil {
		return Report{}, fmt.Errorf("brotli %s: %w", path, err)
	}
	return Report{
		File:   filepath.Base(path),
		Path:   path,
		Raw:    len(data),
		Gzip:   gz,
		Brotli: br,
	}, nil
}

func gzipSize(data []byte) (int, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(data); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

func brotliSize(data []byte) (int, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := w.Write(data); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

// KB renders n bytes as kilobytes with two decimals, e.g. "1.50kb".
func KB(n int) string {
	return fmt.Sprintf("%.2fkb", float64(n)/1024)
}
