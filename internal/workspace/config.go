// Package workspace provides workspace discovery and package metadata loading.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	// ConfigFileName marks the workspace root.
	ConfigFileName = "bundlekit.yaml"

	// DefaultPackagesDir holds one directory per buildable package.
	DefaultPackagesDir = "packages"

	// ManifestFileName is the per-package metadata file.
	ManifestFileName = "package.json"
)

// Package is one buildable target of the workspace.
type Package struct {
	// Name is the package directory name; it keys builds and artifact filenames.
	Name string `json:"name" yaml:"name"`
	// PackageName is the published name from package.json.
	PackageName  string   `json:"packageName,omitempty" yaml:"packageName,omitempty"`
	Root         string   `json:"root" yaml:"root"`
	Version      string   `json:"version,omitempty" yaml:"version,omitempty"`
	Formats      []string `json:"formats,omitempty" yaml:"formats,omitempty"`
	GlobalName   string   `json:"globalName,omitempty" yaml:"globalName,omitempty"`
	Browserslist string   `json:"browserslist,omitempty" yaml:"browserslist,omitempty"`
	// Types is the rolled-up declaration file path relative to Root.
	Types string `json:"types,omitempty" yaml:"types,omitempty"`
}

// DistDir returns the package output directory.
func (p Package) DistDir() string {
	return filepath.Join(p.Root, "dist")
}

// Artifact returns the path of the artifact with the given suffix inside DistDir.
func (p Package) Artifact(suffix string) string {
	return filepath.Join(p.DistDir(), p.Name+suffix)
}

// Workspace is a loaded workspace.
type Workspace struct {
	Root        string
	PackagesDir string
	Packages    []Package
}

// Names returns the package names in declared order.
func (w *Workspace) Names() []string {
	names := make([]string, len(w.Packages))
	for i, p := range w.Packages {
		names[i] = p.Name
	}
	return names
}

// Get retrieves a package by name.
func (w *Workspace) Get(name string) (Package, bool) {
	for _, p := range w.Packages {
		if p.Name == name {
			return p, true
		}
	}
	return Package{}, false
}

// FindRoot walks up from dir looking for bundlekit.yaml, then for a packages directory.
func FindRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	if root, ok := walkUp(abs, func(d string) bool {
		return exists(filepath.Join(d, ConfigFileName))
	}); ok {
		return root, nil
	}

	if root, ok := walkUp(abs, func(d string) bool {
		info, err := os.Stat(filepath.Join(d, DefaultPackagesDir))
		return err == nil && info.IsDir()
	}); ok {
		return root, nil
	}

	return "", fmt.Errorf("no %s or %s/ directory found in %s or any parent directory",
		ConfigFileName, DefaultPackagesDir, abs)
}

func walkUp(dir string, match func(string) bool) (string, bool) {
	for {
		if match(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load enumerates the packages under root/packagesDir. Packages listed in order come
// first in that order; the rest follow alphabetically.
func Load(root, packagesDir string, order []string) (*Workspace, error) {
	if packagesDir == "" {
		packagesDir = DefaultPackagesDir
	}
	dir := filepath.Join(root, packagesDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read packages directory: %w", err)
	}

	byName := make(map[string]Package)
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pkgRoot := filepath.Join(dir, entry.Name())
		manifest, err := ReadManifest(filepath.Join(pkgRoot, ManifestFileName))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("package %q: %w", entry.Name(), err)
		}
		if !manifest.Buildable() {
			continue
		}
		byName[entry.Name()] = manifest.Package(entry.Name(), pkgRoot)
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	ws := &Workspace{Root: root, PackagesDir: packagesDir}
	placed := make(map[string]bool, len(names))
	for _, name := range order {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("order lists unknown package %q", name)
		}
		if placed[name] {
			continue
		}
		placed[name] = true
		ws.Packages = append(ws.Packages, p)
	}
	for _, name := range names {
		if !placed[name] {
			ws.Packages = append(ws.Packages, byName[name])
		}
	}

	return ws, nil
}
