// Package compose builds the per-variant compiler configuration for a target and format.
package compose

import (
	"fmt"

	"github.com/dosanma1/bundlekit/internal/format"
)

// StepKind identifies one stage of a variant's plugin chain.
type StepKind string

const (
	StepResolve     StepKind = "resolve"
	StepCommonJS    StepKind = "commonjs"
	StepTypeScript  StepKind = "typescript"
	StepBabelOutput StepKind = "babel-output"
	StepReplace     StepKind = "replace"
	StepDownlevel   StepKind = "downlevel"
	StepMinify      StepKind = "minify"
)

// PluginStep is one entry of the ordered plugin chain. Only the fields relevant to
// Kind are set.
type PluginStep struct {
	Kind StepKind `json:"kind" yaml:"kind"`

	// typescript
	SourceMap       bool `json:"sourceMap,omitempty" yaml:"sourceMap,omitempty"`
	DeclarationOnly bool `json:"declarationOnly,omitempty" yaml:"declarationOnly,omitempty"`

	// replace
	Values map[string]string `json:"values,omitempty" yaml:"values,omitempty"`

	// downlevel
	Query     string `json:"query,omitempty" yaml:"query,omitempty"`
	Polyfills bool   `json:"polyfills,omitempty" yaml:"polyfills,omitempty"`

	// minify
	StripComments bool `json:"stripComments,omitempty" yaml:"stripComments,omitempty"`
}

// Variant is the full configuration of one compiler invocation.
type Variant struct {
	Target     string        `json:"target" yaml:"target"`
	Kind       format.Kind   `json:"format" yaml:"format"`
	Production bool          `json:"production" yaml:"production"`
	Input      string        `json:"input" yaml:"input"`
	Output     string        `json:"output,omitempty" yaml:"output,omitempty"`
	OutDir     string        `json:"outDir,omitempty" yaml:"outDir,omitempty"`
	Module     format.Module `json:"module" yaml:"module"`
	GlobalName string        `json:"globalName,omitempty" yaml:"globalName,omitempty"`
	SourceMap  bool          `json:"sourceMap" yaml:"sourceMap"`
	Plugins    []PluginStep  `json:"plugins" yaml:"plugins"`
}

// Name returns a short label such as "esm" or "esm.dev".
func (v Variant) Name() string {
	if v.Production || !v.Kind.Spec().Split {
		return v.Kind.String()
	}
	return v.Kind.String() + ".dev"
}

// Mode returns "production" or "development".
func (v Variant) Mode() string {
	if v.Production {
		return "production"
	}
	return "development"
}

func (v Variant) String() string {
	return fmt.Sprintf("%s (%s)", v.Name(), v.Mode())
}

// Step returns the first plugin step of kind k.
func (v Variant) Step(k StepKind) (PluginStep, bool) {
	for _, s := range v.Plugins {
		if s.Kind == k {
			return s, true
		}
	}
	return PluginStep{}, false
}

// Has reports whether the chain contains a step of kind k.
func (v Variant) Has(k StepKind) bool {
	_, ok := v.Step(k)
	return ok
}

// Options carries the mode flags that shape variant expansion.
type Options struct {
	// Production is false for watch sessions.
	Production bool
	DevOnly    bool
	ProdOnly   bool
	SourceMap  bool
}

// Variants reports which of the development and production variants to emit.
// Development runs never produce a production artifact; devOnly wins over prodOnly.
func (o Options) Variants() (dev, prod bool) {
	switch {
	case !o.Production:
		return true, false
	case o.DevOnly:
		return true, false
	case o.ProdOnly:
		return false, true
	default:
		return true, true
	}
}
