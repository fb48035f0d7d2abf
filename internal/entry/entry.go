// Package entry renders the runtime-dispatch index.js of a package.
package entry

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/dosanma1/bundlekit/internal/format"
	"github.com/dosanma1/bundlekit/internal/target"
	"github.com/dosanma1/bundlekit/pkg/xos"
)

// FileName is the entry module written to each package root.
const FileName = "index.js"

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Data is the template input.
type Data struct {
	Name       string
	ProdSuffix string
	DevSuffix  string
}

// Engine renders entry modules.
type Engine struct {
	tmpl *template.Template
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry templates: %w", err)
	}
	return &Engine{tmpl: tmpl}, nil
}

// Render returns the entry module source for t.
func (e *Engine) Render(t target.BuildTarget) ([]byte, error) {
	suffix := format.CJS.Spec().Suffix
	data := Data{
		Name:       t.Name,
		ProdSuffix: suffix,
		DevSuffix:  strings.TrimSuffix(suffix, ".js") + ".dev.js",
	}

	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, "index.js.tmpl", data); err != nil {
		return nil, fmt.Errorf("failed to render entry for %s: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}

// Write renders the entry module of t into its package root and returns the path.
func (e *Engine) Write(t target.BuildTarget) (string, error) {
	content, err := e.Render(t)
	if err != nil {
		return "", err
	}
	path := filepath.Join(t.Root, FileName)
	if err := xos.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
