package compose

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dosanma1/bundlekit/internal/format"
	"github.com/dosanma1/bundlekit/internal/target"
)

const (
	// DefaultBrowserslist is the legacy bundle query when a package declares none.
	DefaultBrowserslist = ">= 1%, IE >= 10, not op_mini all, not dead"

	// DefaultEntry is the source entry point relative to the package root.
	DefaultEntry = "src/index.ts"

	devInfix = ".dev"
)

// Composer produces Variants. The zero value is not usable; call New.
type Composer struct {
	entry        string
	browserslist string
}

// Option configures a Composer.
type Option func(*Composer)

// WithEntry overrides the source entry point.
func WithEntry(entry string) Option {
	return func(c *Composer) {
		if entry != "" {
			c.entry = entry
		}
	}
}

// WithBrowserslist overrides the fallback legacy browser query.
func WithBrowserslist(query string) Option {
	return func(c *Composer) {
		if query != "" {
			c.browserslist = query
		}
	}
}

// New creates a Composer.
func New(opts ...Option) *Composer {
	c := &Composer{
		entry:        DefaultEntry,
		browserslist: DefaultBrowserslist,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose returns the variants of one job in build order: development first.
func (c *Composer) Compose(t target.BuildTarget, k format.Kind, opts Options) ([]Variant, error) {
	spec := k.Spec()
	if spec.Token == "" {
		return nil, fmt.Errorf("compose %s: unknown format %d", t.Name, k)
	}

	if !spec.Split {
		// declarations are single-variant and production-only
		if !opts.Production {
			return nil, nil
		}
		return []Variant{c.declarations(t, opts)}, nil
	}

	dev, prod := opts.Variants()
	var out []Variant
	if dev {
		out = append(out, c.variant(t, k, false, opts))
	}
	if prod {
		out = append(out, c.variant(t, k, true, opts))
	}
	return out, nil
}

// Plan composes every variant of t for kinds, in order.
func (c *Composer) Plan(t target.BuildTarget, kinds []format.Kind, opts Options) ([]Variant, error) {
	var out []Variant
	for _, k := range kinds {
		vs, err := c.Compose(t, k, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

func (c *Composer) variant(t target.BuildTarget, k format.Kind, production bool, opts Options) Variant {
	spec := k.Spec()
	v := Variant{
		Target:     t.Name,
		Kind:       k,
		Production: production,
		Input:      filepath.Join(t.Root, c.entry),
		Output:     t.Artifact(spec.Suffix),
		Module:     spec.Module,
		SourceMap:  opts.SourceMap,
	}
	if spec.ConsumesESM {
		v.Input = t.Artifact(format.ESM.Spec().Suffix)
		v.GlobalName = t.GlobalName
	}
	if !production {
		v.Output = devPath(v.Output)
		if spec.ConsumesESM {
			v.Input = devPath(v.Input)
		}
	}

	v.Plugins = []PluginStep{{Kind: StepResolve}, {Kind: StepCommonJS}}
	if spec.Browser {
		v.Plugins = append(v.Plugins, c.downlevel(t, k, opts))
		if production && spec.Minified {
			v.Plugins = append(v.Plugins, PluginStep{Kind: StepMinify, StripComments: true})
		}
		return v
	}

	v.Plugins = append(v.Plugins, PluginStep{Kind: StepTypeScript, SourceMap: opts.SourceMap})
	if k == format.CJS {
		v.Plugins = append(v.Plugins, PluginStep{Kind: StepBabelOutput})
	}
	v.Plugins = append(v.Plugins, replaceStep(t, production))
	return v
}

func (c *Composer) downlevel(t target.BuildTarget, k format.Kind, opts Options) PluginStep {
	step := PluginStep{Kind: StepDownlevel, SourceMap: opts.SourceMap}
	if k == format.Browser {
		step.Query = t.Browserslist
		if step.Query == "" {
			step.Query = c.browserslist
		}
		step.Polyfills = true
	}
	return step
}

func (c *Composer) declarations(t target.BuildTarget, opts Options) Variant {
	return Variant{
		Target:     t.Name,
		Kind:       format.Declarations,
		Production: true,
		Input:      filepath.Join(t.Root, c.entry),
		OutDir:     t.DistDir(),
		Module:     format.Declarations.Spec().Module,
		SourceMap:  opts.SourceMap,
		Plugins: []PluginStep{
			{Kind: StepResolve},
			{Kind: StepCommonJS},
			{Kind: StepTypeScript, SourceMap: opts.SourceMap, DeclarationOnly: true},
		},
	}
}

// replaceStep substitutes the environment constants. __DEV__ is the only value that
// differs between the two variants.
func replaceStep(t target.BuildTarget, production bool) PluginStep {
	return PluginStep{
		Kind: StepReplace,
		Values: map[string]string{
			"__DEV__":     strconv.FormatBool(!production),
			"__VERSION__": strconv.Quote(t.Version),
		},
	}
}

// devPath inserts the development infix before the trailing .js.
func devPath(p string) string {
	if strings.HasSuffix(p, ".js") {
		return strings.TrimSuffix(p, ".js") + devInfix + ".js"
	}
	return p + devInfix
}
