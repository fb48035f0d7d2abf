package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosanma1/bundlekit/internal/compose"
	"github.com/dosanma1/bundlekit/internal/format"
	"github.com/dosanma1/bundlekit/internal/target"
)

type fakeEmitter struct {
	root   string
	outDir string
}

func (f *fakeEmitter) EmitDeclarations(_ context.Context, root, outDir string) error {
	f.root = root
	f.outDir = outDir
	return nil
}

type namedCompiler string

func (n namedCompiler) Name() string                               { return string(n) }
func (n namedCompiler) Compile(context.Context, Invocation) error { return nil }

func writeSource(t *testing.T) target.BuildTarget {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	code := "declare const __VERSION__: string;\n" +
		"declare const __DEV__: boolean;\n" +
		"export const version: string = __VERSION__;\n" +
		"export function isDev(): boolean { return __DEV__; }\n" +
		"export function greet(name: string): string { return `hello ${name}`; }\n"
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.ts"), []byte(code), 0o644))
	return target.BuildTarget{Name: "pkg", Root: root, Version: "1.2.3", GlobalName: "Pkg"}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(namedCompiler("exec"), namedCompiler("esbuild"))
	require.NoError(t, err)
	assert.Equal(t, []string{"esbuild", "exec"}, r.List())

	c, err := r.Get("esbuild")
	require.NoError(t, err)
	assert.Equal(t, "esbuild", c.Name())

	_, err = r.Get("rollup")
	assert.Error(t, err)
	assert.Error(t, r.Register(namedCompiler("exec")))
}

func TestEsbuild_CompilesLibraryVariants(t *testing.T) {
	tgt := writeSource(t)
	vs, err := compose.New().Compose(tgt, format.CJS, compose.Options{Production: true})
	require.NoError(t, err)

	var diag bytes.Buffer
	e := NewEsbuild(nil, WithDiagnostics(&diag), WithEsbuildLogger(zerolog.Nop()))
	for _, v := range vs {
		require.NoError(t, e.Compile(context.Background(), Invocation{Root: tgt.Root, Variant: v}), diag.String())
	}

	prod, err := os.ReadFile(filepath.Join(tgt.Root, "dist", "pkg.cjs.js"))
	require.NoError(t, err)
	assert.Contains(t, string(prod), `"1.2.3"`)
	assert.NotContains(t, string(prod), "__VERSION__")

	dev, err := os.ReadFile(filepath.Join(tgt.Root, "dist", "pkg.cjs.dev.js"))
	require.NoError(t, err)
	assert.NotContains(t, string(dev), "__DEV__")
}

func TestEsbuild_BrowserConsumesESM(t *testing.T) {
	tgt := writeSource(t)
	c := compose.New()
	vs, err := c.Plan(tgt, []format.Kind{format.ESM, format.BrowserModern}, compose.Options{Production: true, ProdOnly: true})
	require.NoError(t, err)
	require.Len(t, vs, 2)

	e := NewEsbuild(nil, WithDiagnostics(&bytes.Buffer{}))
	for _, v := range vs {
		require.NoError(t, e.Compile(context.Background(), Invocation{Root: tgt.Root, Variant: v}))
	}

	out, err := os.ReadFile(filepath.Join(tgt.Root, "dist", "pkg.modern.js"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Pkg")
	assert.Contains(t, string(out), "1.2.3")
}

func TestEsbuild_ReportsErrors(t *testing.T) {
	tgt := writeSource(t)
	vs, err := compose.New().Compose(tgt, format.Browser, compose.Options{Production: true, ProdOnly: true})
	require.NoError(t, err)

	// the esm input has not been built
	var diag bytes.Buffer
	err = NewEsbuild(nil, WithDiagnostics(&diag)).Compile(context.Background(), Invocation{Root: tgt.Root, Variant: vs[0]})
	require.Error(t, err)
	assert.NotEmpty(t, diag.String())
}

func TestEsbuild_DelegatesDeclarations(t *testing.T) {
	tgt := writeSource(t)
	vs, err := compose.New().Compose(tgt, format.Declarations, compose.Options{Production: true})
	require.NoError(t, err)
	require.Len(t, vs, 1)

	emitter := &fakeEmitter{}
	require.NoError(t, NewEsbuild(emitter).Compile(context.Background(), Invocation{Root: tgt.Root, Variant: vs[0]}))
	assert.Equal(t, tgt.Root, emitter.root)
	assert.Equal(t, filepath.Join(tgt.Root, "dist"), emitter.outDir)

	assert.Error(t, NewEsbuild(nil).Compile(context.Background(), Invocation{Root: tgt.Root, Variant: vs[0]}))
}

func TestEsbuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewEsbuild(nil).Compile(ctx, Invocation{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExec_PassesInvocationFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	tgt := writeSource(t)
	vs, err := compose.New().Compose(tgt, format.ESM, compose.Options{Production: true, ProdOnly: true})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "invocation.json")
	// $0 is dest, $1 is --config and $2 is the invocation file
	e := NewExec("sh", []string{"-c", `cp "$2" "$0"`, dest}, zerolog.Nop()).WithOutput(&bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, e.Compile(context.Background(), Invocation{Root: tgt.Root, Variant: vs[0]}))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var inv struct {
		Root    string `json:"root"`
		Variant struct {
			Format  string `json:"format"`
			Output  string `json:"output"`
			Plugins []struct {
				Kind string `json:"kind"`
			} `json:"plugins"`
		} `json:"variant"`
	}
	require.NoError(t, json.Unmarshal(data, &inv))
	assert.Equal(t, tgt.Root, inv.Root)
	assert.Equal(t, "esm", inv.Variant.Format)
	assert.Equal(t, filepath.Join(tgt.Root, "dist", "pkg.esm.js"), inv.Variant.Output)
	require.NotEmpty(t, inv.Variant.Plugins)
	assert.Equal(t, string(compose.StepReplace), inv.Variant.Plugins[len(inv.Variant.Plugins)-1].Kind)
}

func TestExec_ExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	e := NewExec("sh", []string{"-c", "exit 3"}, zerolog.Nop()).WithOutput(&bytes.Buffer{}, &bytes.Buffer{})
	err := e.Compile(context.Background(), Invocation{Root: t.TempDir(), Variant: compose.Variant{Target: "pkg", Kind: format.CJS}})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
}

func TestExec_NoCommand(t *testing.T) {
	err := NewExec("", nil, zerolog.Nop()).Compile(context.Background(), Invocation{})
	assert.Error(t, err)
}

func TestEngines(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []api.Engine
	}{
		{
			name:  "default legacy query has no mappable browser",
			query: compose.DefaultBrowserslist,
			want:  []api.Engine{},
		},
		{
			name:  "minimum versions",
			query: "chrome >= 60, Safari 12, firefox > 78",
			want: []api.Engine{
				{Name: api.EngineChrome, Version: "60"},
				{Name: api.EngineFirefox, Version: "78"},
				{Name: api.EngineSafari, Version: "12"},
			},
		},
		{
			name:  "raised to the es2015 floor",
			query: "chrome >= 30, ios_saf 9-9.3",
			want: []api.Engine{
				{Name: api.EngineChrome, Version: "51"},
				{Name: api.EngineIOS, Version: "10"},
			},
		},
		{
			name:  "lowest repeated version wins",
			query: "node 18, node >= 14.17, node 16",
			want:  []api.Engine{{Name: api.EngineNode, Version: "14.17"}},
		},
		{
			name:  "unknown and malformed clauses ignored",
			query: "last 2 versions, edge, opera >= x, op_mini all",
			want:  []api.Engine{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engines(tt.query))
		})
	}
}

func TestEsbuild_LegacyQuerySetsEngines(t *testing.T) {
	bt := writeSource(t)
	bt.Browserslist = "chrome >= 61"
	vs, err := compose.New().Compose(bt, format.Browser, compose.Options{Production: true, ProdOnly: true})
	require.NoError(t, err)
	require.NotEmpty(t, vs)

	opts := NewEsbuild(nil).buildOptions(Invocation{Root: bt.Root, Variant: vs[0]})
	assert.Equal(t, api.ES2015, opts.Target)
	assert.Equal(t, []api.Engine{{Name: api.EngineChrome, Version: "61"}}, opts.Engines)
}
