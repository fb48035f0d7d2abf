package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Manifest is the subset of package.json the build reads.
type Manifest struct {
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	Private      bool          `json:"private"`
	Types        string        `json:"types"`
	Browserslist Browserslist  `json:"browserslist"`
	BuildOptions *BuildOptions `json:"buildOptions"`
}

// BuildOptions is the package.json "buildOptions" block.
type BuildOptions struct {
	// Name is the global variable the browser bundles assign to.
	Name    string   `json:"name"`
	Formats []string `json:"formats"`
}

// Browserslist accepts either a query string or an array of queries.
type Browserslist string

func (b *Browserslist) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = Browserslist(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("browserslist must be a string or an array of strings")
	}
	*b = Browserslist(strings.Join(list, ", "))
	return nil
}

// ReadManifest loads a package.json file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest decodes package.json content.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFileName, err)
	}
	return &m, nil
}

// Buildable reports whether the package takes part in builds. Private packages
// are skipped unless they opt in with buildOptions.
func (m *Manifest) Buildable() bool {
	return !m.Private || m.BuildOptions != nil
}

// Package converts the manifest into a Package rooted at root.
func (m *Manifest) Package(name, root string) Package {
	p := Package{
		Name:         name,
		PackageName:  m.Name,
		Root:         root,
		Version:      m.Version,
		Browserslist: string(m.Browserslist),
		Types:        m.Types,
	}
	if m.BuildOptions != nil {
		p.GlobalName = m.BuildOptions.Name
		p.Formats = append([]string(nil), m.BuildOptions.Formats...)
	}
	return p
}
