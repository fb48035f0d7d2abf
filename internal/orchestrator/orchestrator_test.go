package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosanma1/bundlekit/internal/compiler"
	"github.com/dosanma1/bundlekit/internal/declaration"
	"github.com/dosanma1/bundlekit/internal/format"
	"github.com/dosanma1/bundlekit/internal/size"
	"github.com/dosanma1/bundlekit/internal/target"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

type fakeCompiler struct {
	mu     sync.Mutex
	calls  []compiler.Invocation
	failOn map[string]error // "target/variant"
}

func (f *fakeCompiler) Name() string { return "fake" }

func (f *fakeCompiler) Compile(_ context.Context, inv compiler.Invocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, inv)
	return f.failOn[inv.Variant.Target+"/"+inv.Variant.Name()]
}

func (f *fakeCompiler) names(targetName string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if targetName == "" || c.Variant.Target == targetName {
			out = append(out, c.Variant.Target+"/"+c.Variant.Name())
		}
	}
	return out
}

type fakeBundler struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]bool
}

func (f *fakeBundler) Bundle(_ context.Context, t target.BuildTarget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, t.Name)
	if f.failOn[t.Name] {
		return &declaration.BundleFailure{Target: t.Name, Errors: 1}
	}
	return nil
}

type fakeSizes struct {
	calls [][]string
}

func (f *fakeSizes) Report(targets []target.BuildTarget) ([]size.Report, error) {
	var names []string
	for _, t := range targets {
		names = append(names, t.Name)
	}
	f.calls = append(f.calls, names)
	return []size.Report{{Target: names[0], File: names[0] + ".js", Raw: 1024, Gzip: 512, Brotli: 256}}, nil
}

type fixture struct {
	targets  []target.BuildTarget
	compiler *fakeCompiler
	bundler  *fakeBundler
	sizes    *fakeSizes
	checks   int
	checkErr error
	out      bytes.Buffer
}

func newFixture(t *testing.T, targets ...target.BuildTarget) *fixture {
	t.Helper()
	root := t.TempDir()
	for i := range targets {
		targets[i].Root = filepath.Join(root, "packages", targets[i].Name)
		require.NoError(t, os.MkdirAll(targets[i].DistDir(), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(targets[i].DistDir(), "marker"), nil, 0o644))
	}
	return &fixture{
		targets:  targets,
		compiler: &fakeCompiler{failOn: map[string]error{}},
		bundler:  &fakeBundler{failOn: map[string]bool{}},
		sizes:    &fakeSizes{},
	}
}

func (f *fixture) run(opts BuildOptions, requested ...string) Result {
	o := New(Deps{
		Targets:  f.targets,
		Compiler: f.compiler,
		TypeChecker: TypeCheckFunc(func(context.Context) error {
			f.checks++
			return f.checkErr
		}),
		Declarations: f.bundler,
		Sizes:        f.sizes,
		Out:          &f.out,
		ProgressOut:  &bytes.Buffer{},
		Logger:       zerolog.Nop(),
	}, opts)
	return o.Run(context.Background(), requested)
}

func (f *fixture) markerExists(name string) bool {
	for _, t := range f.targets {
		if t.Name == name {
			_, err := os.Stat(filepath.Join(t.DistDir(), "marker"))
			return err == nil
		}
	}
	return false
}

func pkg(name string, formats ...string) target.BuildTarget {
	return target.BuildTarget{Name: name, Version: "1.0.0", Formats: formats, GlobalName: "Pkg"}
}

func TestRun_FormatOverrideIsIncremental(t *testing.T) {
	f := newFixture(t, pkg("pkgA", "cjs", "esm"))
	opts := DefaultBuildOptions()
	opts.TypeCheck = false
	opts.Formats = []string{"cjs"}

	res := f.run(opts, "pkgA")
	require.NoError(t, res.Err)
	assert.Equal(t, ExitSuccess, res.ExitCode)
	assert.Equal(t, Completed, res.State)
	assert.Equal(t, 2, res.Compiles)
	assert.Equal(t, []string{"pkgA/cjs.dev", "pkgA/cjs"}, f.compiler.names(""))
	assert.True(t, f.markerExists("pkgA"), "format override must not clear dist")
	assert.Empty(t, f.sizes.calls)
}

func TestRun_CleansDistWithoutOverride(t *testing.T) {
	f := newFixture(t, pkg("pkgA", "cjs", "esm"))
	opts := DefaultBuildOptions()
	opts.TypeCheck = false

	res := f.run(opts, "pkgA")
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"pkgA/cjs.dev", "pkgA/cjs", "pkgA/esm.dev", "pkgA/esm"}, f.compiler.names(""))
	assert.False(t, f.markerExists("pkgA"))
}

func TestRun_TypeCheckFailureBuildsNothing(t *testing.T) {
	f := newFixture(t, pkg("pkgA"), pkg("pkgB"))
	f.checkErr = errors.New("tsc exited with code 2")

	res := f.run(DefaultBuildOptions(), "pkgA", "pkgB")
	assert.Equal(t, ExitTypeCheck, res.ExitCode)
	assert.Equal(t, Aborted, res.State)
	assert.Equal(t, 1, f.checks)
	assert.Empty(t, f.compiler.names(""))
	assert.Contains(t, f.out.String(), TypeCheckMessage)

	var tc *TypeCheckFailure
	assert.ErrorAs(t, res.Err, &tc)
	assert.True(t, f.markerExists("pkgA"), "nothing is cleaned before the gate passes")
}

func TestRun_TypeCheckRunsOnce(t *testing.T) {
	f := newFixture(t, pkg("pkgA", "cjs"), pkg("pkgB", "cjs"))
	res := f.run(DefaultBuildOptions())
	require.NoError(t, res.Err)
	assert.Equal(t, 1, f.checks)
	assert.Equal(t, []State{Idle, TypeChecking, Compiling, Completed}, res.Trace)
}

func TestRun_CompileFailureAborts(t *testing.T) {
	f := newFixture(t, pkg("pkgA", "cjs", "esm"), pkg("pkgB", "cjs"))
	f.compiler.failOn["pkgA/esm.dev"] = &compiler.ExitError{Code: 2}
	opts := DefaultBuildOptions()
	opts.TypeCheck = false

	res := f.run(opts)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, Aborted, res.State)
	assert.Equal(t, []string{"pkgA/cjs.dev", "pkgA/cjs", "pkgA/esm.dev"}, f.compiler.names(""))
	assert.Empty(t, f.compiler.names("pkgB"))
	assert.Empty(t, res.Built)
	assert.Contains(t, f.out.String(), "Build failed for pkgA (esm.dev)")

	var cf *CompileFailure
	require.ErrorAs(t, res.Err, &cf)
	assert.Equal(t, "pkgA", cf.Target)
	assert.Equal(t, "esm.dev", cf.Variant)
}

func TestRun_CompileFailureWithoutCodeExitsOne(t *testing.T) {
	f := newFixture(t, pkg("pkgA", "esm"))
	f.compiler.failOn["pkgA/esm"] = errors.New("esbuild: 1 error(s)")
	opts := DefaultBuildOptions()
	opts.TypeCheck = false
	opts.ProdOnly = true

	res := f.run(opts)
	assert.Equal(t, ExitFailure, res.ExitCode)
	assert.Equal(t, Aborted, res.State)
}

func TestRun_DeclarationFailureIsNotFatal(t *testing.T) {
	a := pkg("pkgA", "cjs")
	a.Types = "dist/pkgA.d.ts"
	b := pkg("pkgB", "cjs")
	b.Types = "dist/pkgB.d.ts"
	f := newFixture(t, a, b)
	f.bundler.failOn["pkgA"] = true
	opts := DefaultBuildOptions()
	opts.TypeCheck = false
	opts.Types = true

	res := f.run(opts)
	assert.Equal(t, ExitFailure, res.ExitCode)
	assert.Equal(t, Completed, res.State)
	assert.Contains(t, res.Trace, Bundling)
	assert.NotContains(t, res.Trace, Aborted)
	assert.Equal(t, []string{"pkgA", "pkgB"}, f.bundler.calls)
	assert.Equal(t, []string{"pkgB/cjs.dev", "pkgB/cjs", "pkgB/declarations"}, f.compiler.names("pkgB"))
	require.Len(t, res.Built, 2)

	var bf *declaration.BundleFailure
	require.ErrorAs(t, res.Err, &bf)
	assert.Equal(t, "pkgA", bf.Target)
}

func TestRun_TypesIgnoredOutsideProduction(t *testing.T) {
	f := newFixture(t, pkg("pkgA", "cjs"))
	opts := DefaultBuildOptions()
	opts.TypeCheck = false
	opts.Types = true
	opts.Production = false

	res := f.run(opts)
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"pkgA/cjs.dev"}, f.compiler.names(""))
	assert.Empty(t, f.bundler.calls)
}

func TestRun_SizeReportAfterProductionBrowserBuild(t *testing.T) {
	f := newFixture(t, pkg("pkgA", "esm", "browser"), pkg("pkgB", "cjs"))
	opts := DefaultBuildOptions()
	opts.TypeCheck = false

	res := f.run(opts)
	require.NoError(t, res.Err)
	assert.Equal(t, [][]string{{"pkgA", "pkgB"}}, f.sizes.calls)
	require.Len(t, res.Sizes, 1)
	assert.Contains(t, f.out.String(), "pkgA.js min:1.00kb / gzip:0.50kb / brotli:0.25kb")
	assert.Equal(t, []State{Idle, Compiling, Reporting, Completed}, res.Trace)
}

func TestRun_NoSizeReportForDevOnly(t *testing.T) {
	f := newFixture(t, pkg("pkgA", "esm", "browser"))
	opts := DefaultBuildOptions()
	opts.TypeCheck = false
	opts.DevOnly = true
	opts.ProdOnly = true

	res := f.run(opts)
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"pkgA/esm.dev", "pkgA/browser.dev"}, f.compiler.names(""))
	assert.Empty(t, f.sizes.calls)
}

func TestRun_ValidationFailsFast(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		formats   []string
		target    interface{}
	}{
		{"unknown target", []string{"nope"}, nil, new(*target.UnknownTargetError)},
		{"invalid format", nil, []string{"umd"}, new(*format.InvalidFormatError)},
		{"dependent format", nil, []string{"browser"}, new(*format.DependentFormatError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, pkg("pkgA"), pkg("pkgB"))
			opts := DefaultBuildOptions()
			opts.Formats = tt.formats

			res := f.run(opts, tt.requested...)
			assert.Equal(t, ExitFailure, res.ExitCode)
			assert.Equal(t, Aborted, res.State)
			assert.Zero(t, f.checks, "validation precedes the type check")
			assert.Empty(t, f.compiler.names(""))
			assert.ErrorAs(t, res.Err, tt.target)
		})
	}
}

func TestRun_FuzzyAll(t *testing.T) {
	f := newFixture(t, pkg("core", "cjs"), pkg("core-utils", "cjs"), pkg("falcon", "cjs"))
	opts := DefaultBuildOptions()
	opts.TypeCheck = false
	opts.ProdOnly = true
	opts.FuzzyAll = true

	res := f.run(opts, "cor")
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"core/cjs", "core-utils/cjs"}, f.compiler.names(""))
}

func TestRun_Parallel(t *testing.T) {
	f := newFixture(t, pkg("a", "esm", "browser"), pkg("b", "esm", "browserModern"), pkg("c", "cjs"))
	opts := DefaultBuildOptions()
	opts.TypeCheck = false
	opts.Parallel = 2
	opts.Progress = true

	res := f.run(opts)
	require.NoError(t, res.Err)
	assert.Equal(t, 10, res.Compiles)
	assert.Equal(t, []string{"a", "b", "c"}, []string{res.Built[0].Name, res.Built[1].Name, res.Built[2].Name})
	assert.Equal(t, []string{"a/esm.dev", "a/esm", "a/browser.dev", "a/browser"}, f.compiler.names("a"))
	assert.Equal(t, []string{"b/esm.dev", "b/esm", "b/browserModern.dev", "b/browserModern"}, f.compiler.names("b"))
	assert.Len(t, f.sizes.calls, 1)
}

func TestRun_ParallelFailure(t *testing.T) {
	f := newFixture(t, pkg("a", "cjs"), pkg("b", "cjs"))
	f.compiler.failOn["b/cjs"] = &compiler.ExitError{Code: 7}
	opts := DefaultBuildOptions()
	opts.TypeCheck = false
	opts.Parallel = 4

	res := f.run(opts)
	assert.Equal(t, 7, res.ExitCode)
	assert.Equal(t, Aborted, res.State)
}

func TestPlan(t *testing.T) {
	a := pkg("pkgA", "esm", "browser")
	a.Root = "/ws/packages/pkgA"
	opts := DefaultBuildOptions()
	opts.Types = true
	o := New(Deps{Targets: []target.BuildTarget{a}}, opts)

	plans, err := o.Plan(nil)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, []format.Kind{format.ESM, format.Browser, format.Declarations}, plans[0].Kinds)
	assert.Len(t, plans[0].Variants, 5)
}
