package orchestrator

import (
	"github.com/dosanma1/bundlekit/internal/compose"
)

// BuildOptions is the immutable configuration of one build run. It is built once
// from command line flags and passed by value.
type BuildOptions struct {
	// Formats is the format override; empty means each target's declared formats.
	Formats   []string
	TypeCheck bool
	DevOnly   bool
	ProdOnly  bool
	// Types appends the declarations format and runs the declaration bundler.
	Types     bool
	SourceMap bool
	// FuzzyAll allows prefix and substring matches for requested names.
	FuzzyAll   bool
	Production bool
	// Parallel is the number of targets built concurrently.
	Parallel int
	Progress bool
}

// DefaultBuildOptions returns the options of a plain production build.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		TypeCheck:  true,
		Production: true,
		Parallel:   1,
	}
}

// Normalize resolves conflicting flags: devOnly wins over prodOnly.
func (o BuildOptions) Normalize() BuildOptions {
	if o.DevOnly {
		o.ProdOnly = false
	}
	if o.Parallel < 1 {
		o.Parallel = 1
	}
	return o
}

// HasOverride reports whether a format subset was requested.
func (o BuildOptions) HasOverride() bool {
	return len(o.Formats) > 0
}

// ExtractTypes reports whether declarations are built. They only exist in production runs.
func (o BuildOptions) ExtractTypes() bool {
	return o.Types && o.Production
}

// ComposeOptions derives the composer flags.
func (o BuildOptions) ComposeOptions() compose.Options {
	o = o.Normalize()
	return compose.Options{
		Production: o.Production,
		DevOnly:    o.DevOnly,
		ProdOnly:   o.ProdOnly,
		SourceMap:  o.SourceMap,
	}
}
