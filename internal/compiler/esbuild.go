package compiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"

	"github.com/dosanma1/bundlekit/internal/compose"
	"github.com/dosanma1/bundlekit/internal/format"
)

// EsbuildName is the configuration name of the in-process backend.
const EsbuildName = "esbuild"

// Esbuild compiles variants in-process with the esbuild Go API.
type Esbuild struct {
	declarations DeclarationEmitter
	polyfills    string
	stderr       io.Writer
	logger       zerolog.Logger
}

// EsbuildOption configures the esbuild backend.
type EsbuildOption func(*Esbuild)

// WithPolyfills sets a file injected into bundles whose downlevel step requests polyfills.
func WithPolyfills(path string) EsbuildOption {
	return func(e *Esbuild) {
		e.polyfills = path
	}
}

// WithDiagnostics redirects formatted esbuild messages.
func WithDiagnostics(w io.Writer) EsbuildOption {
	return func(e *Esbuild) {
		e.stderr = w
	}
}

// WithEsbuildLogger sets the backend logger.
func WithEsbuildLogger(logger zerolog.Logger) EsbuildOption {
	return func(e *Esbuild) {
		e.logger = logger
	}
}

// NewEsbuild creates the esbuild backend. declarations may be nil when declaration
// variants are never compiled.
func NewEsbuild(declarations DeclarationEmitter, opts ...EsbuildOption) *Esbuild {
	e := &Esbuild{
		declarations: declarations,
		stderr:       os.Stderr,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the backend identifier.
func (e *Esbuild) Name() string {
	return EsbuildName
}

// Compile builds one variant.
func (e *Esbuild) Compile(ctx context.Context, inv Invocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := inv.Variant

	if v.Kind == format.Declarations {
		if e.declarations == nil {
			return fmt.Errorf("%s: no declaration emitter configured", v.Target)
		}
		return e.declarations.EmitDeclarations(ctx, inv.Root, v.OutDir)
	}

	opts := e.buildOptions(inv)
	e.logger.Debug().
		Str("target", v.Target).
		Str("variant", v.Name()).
		Str("input", v.Input).
		Str("output", v.Output).
		Msg("esbuild")

	result := api.Build(opts)
	e.report(result)
	if len(result.Errors) > 0 {
		return fmt.Errorf("esbuild: %d error(s) building %s", len(result.Errors), filepath.Base(v.Output))
	}
	return nil
}

func (e *Esbuild) buildOptions(inv Invocation) api.BuildOptions {
	v := inv.Variant
	opts := api.BuildOptions{
		EntryPoints:   []string{v.Input},
		Outfile:       v.Output,
		AbsWorkingDir: inv.Root,
		Bundle:        true,
		Write:         true,
		Format:        esbuildFormat(v.Module),
		Platform:      api.PlatformNeutral,
		Target:        api.ES2019,
		GlobalName:    v.GlobalName,
		LogLevel:      api.LogLevelSilent,
		MainFields:    []string{"module", "main"},
	}
	if v.SourceMap {
		opts.Sourcemap = api.SourceMapLinked
	}
	if v.Kind.IsBrowser() {
		opts.Platform = api.PlatformBrowser
	}

	for _, step := range v.Plugins {
		switch step.Kind {
		case compose.StepReplace:
			opts.Define = step.Values
		case compose.StepDownlevel:
			// a browserslist query means a legacy bundle
			if step.Query != "" {
				opts.Target = api.ES2015
				opts.Engines = engines(step.Query)
			} else {
				opts.Target = api.ES2020
			}
			if step.Polyfills && e.polyfills != "" {
				opts.Inject = append(opts.Inject, e.polyfills)
			}
		case compose.StepMinify:
			opts.MinifyWhitespace = true
			opts.MinifyIdentifiers = true
			opts.MinifySyntax = true
			if step.StripComments {
				opts.LegalComments = api.LegalCommentsNone
			}
		}
	}
	return opts
}

func (e *Esbuild) report(result api.BuildResult) {
	for _, kind := range []struct {
		msgs []api.Message
		kind api.MessageKind
	}{
		{result.Errors, api.ErrorMessage},
		{result.Warnings, api.WarningMessage},
	} {
		if len(kind.msgs) == 0 {
			continue
		}
		formatted := api.FormatMessages(kind.msgs, api.FormatMessagesOptions{
			Kind:          kind.kind,
			TerminalWidth: 100,
		})
		fmt.Fprint(e.stderr, strings.Join(formatted, ""))
	}
}

func esbuildFormat(m format.Module) api.Format {
	switch m {
	case format.ModuleCJS:
		return api.FormatCommonJS
	case format.ModuleIIFE:
		return api.FormatIIFE
	default:
		return api.FormatESModule
	}
}

// engineFloors maps browserslist names to esbuild engines together with the
// oldest version esbuild can lower ES2015 syntax for.
var engineFloors = map[string]api.Engine{
	"chrome":  {Name: api.EngineChrome, Version: "51"},
	"edge":    {Name: api.EngineEdge, Version: "15"},
	"firefox": {Name: api.EngineFirefox, Version: "54"},
	"ff":      {Name: api.EngineFirefox, Version: "54"},
	"safari":  {Name: api.EngineSafari, Version: "10"},
	"ios_saf": {Name: api.EngineIOS, Version: "10"},
	"ios":     {Name: api.EngineIOS, Version: "10"},
	"node":    {Name: api.EngineNode, Version: "6"},
	"opera":   {Name: api.EngineOpera, Version: "38"},
}

// engines translates the browser clauses of a browserslist query into esbuild
// engine constraints. Only "<browser> >= <version>", "<browser> > <version>" and
// "<browser> <version>" clauses are understood; usage, "last N", "not" and "dead"
// clauses are ignored. IE has no esbuild engine and falls back to the ES2015
// target. Versions older than esbuild's ES2015 floor are raised to it. When a
// browser appears more than once the lowest version wins.
func engines(query string) []api.Engine {
	lowest := make(map[api.EngineName]api.Engine)
	for _, clause := range strings.Split(query, ",") {
		fields := strings.Fields(strings.ToLower(clause))
		if len(fields) < 2 {
			continue
		}
		floor, ok := engineFloors[fields[0]]
		if !ok {
			continue
		}
		version := fields[1]
		if (version == ">=" || version == ">") && len(fields) > 2 {
			version = fields[2]
		}
		// "10-11" ranges start at their lower bound
		version, _, _ = strings.Cut(version, "-")
		if !isVersion(version) {
			continue
		}
		if versionLess(version, floor.Version) {
			version = floor.Version
		}
		prev, seen := lowest[floor.Name]
		if seen && !versionLess(version, prev.Version) {
			continue
		}
		lowest[floor.Name] = api.Engine{Name: floor.Name, Version: version}
	}

	out := make([]api.Engine, 0, len(lowest))
	for _, e := range lowest {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func isVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if _, err := strconv.Atoi(part); err != nil {
			return false
		}
	}
	return true
}

// versionLess compares dotted numeric versions. Both must satisfy isVersion.
func versionLess(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			x, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			y, _ = strconv.Atoi(bs[i])
		}
		if x != y {
			return x < y
		}
	}
	return false
}
