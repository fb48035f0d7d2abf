package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dosanma1/bundlekit/internal/format"
	"github.com/dosanma1/bundlekit/internal/orchestrator"
)

// matrixFlags are the flags that shape the build matrix. They are shared by build and plan.
type matrixFlags struct {
	formats   string
	devOnly   bool
	prodOnly  bool
	types     bool
	sourceMap bool
	all       bool
}

func (f *matrixFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.formats, "formats", "f", "", "Only build these formats, e.g. esm/browser or cjs,esm")
	fs.BoolVarP(&f.devOnly, "dev-only", "d", false, "Only build development variants")
	fs.BoolVarP(&f.prodOnly, "prod-only", "p", false, "Only build production variants (ignored with --dev-only)")
	fs.BoolVarP(&f.types, "types", "t", false, "Roll up type declarations")
	fs.BoolVarP(&f.sourceMap, "sourcemap", "s", false, "Emit source maps")
	fs.BoolVarP(&f.all, "all", "a", false, "Match package names by prefix or substring")
}

func (f *matrixFlags) apply(o orchestrator.BuildOptions) orchestrator.BuildOptions {
	o.Formats = format.ParseList(f.formats)
	o.DevOnly = f.devOnly
	o.ProdOnly = f.prodOnly
	o.Types = f.types
	o.SourceMap = f.sourceMap
	o.FuzzyAll = f.all
	return o.Normalize()
}

type buildFlags struct {
	matrixFlags
	noTypeCheck bool
	parallel    int
	progress    bool
	backend     string
}

func (f *buildFlags) register(fs *pflag.FlagSet) {
	f.matrixFlags.register(fs)
	fs.BoolVar(&f.noTypeCheck, "no-type-check", false, "Skip the type-check gate")
	fs.BoolVar(&f.noTypeCheck, "ntc", false, "Alias for --no-type-check")
	_ = fs.MarkHidden("ntc")
	fs.IntVar(&f.parallel, "parallel", 1, "Number of packages built concurrently")
	fs.BoolVar(&f.progress, "progress", false, "Show a progress bar")
	fs.StringVar(&f.backend, "backend", "", "Compiler backend (esbuild|exec)")
}

// options builds the immutable run configuration.
func (f *buildFlags) options() orchestrator.BuildOptions {
	o := f.apply(orchestrator.DefaultBuildOptions())
	o.TypeCheck = !f.noTypeCheck
	o.Parallel = f.parallel
	o.Progress = f.progress && colorEnabled(os.Stderr)
	return o.Normalize()
}

var buildOpts buildFlags

var buildCmd = &cobra.Command{
	Use:   "build [package...]",
	Short: "Build packages in every declared format",
	Long: `Build one or more packages of the workspace.

The workspace is type-checked once, then every package is compiled into each
of its declared formats, development variant before production. Browser
bundles are measured when a production browser build completed.

Without --formats the dist directory of each package is wiped first; with it
the build is incremental and only the named formats are rebuilt.

Exit codes:
  0  success
  1  invalid package or format, or type declaration rollup failed
  4  type-check failed
  n  the compiler's exit code

Examples:
  bundlekit build                        # Build everything
  bundlekit build core                   # Build one package
  bundlekit build core -f esm/browser    # Rebuild two formats, keep the rest
  bundlekit build -d --ntc               # Fast development build
  bundlekit build -t                     # Also roll up type declarations
  bundlekit build -a ui --parallel 4     # All packages matching "ui", 4 at a time`,
	RunE: runBuild,
}

func init() {
	buildOpts.register(buildCmd.Flags())
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	deps, err := s.deps(buildOpts.backend)
	if err != nil {
		return err
	}

	opts := buildOpts.options()
	s.logger.Debug().
		Strs("formats", opts.Formats).
		Bool("production", opts.Production).
		Bool("devOnly", opts.DevOnly).
		Bool("prodOnly", opts.ProdOnly).
		Int("parallel", opts.Parallel).
		Msg("build options")

	result := orchestrator.New(deps, opts).Run(cmd.Context(), args)
	s.logger.Debug().Stringer("state", result.State).Int("compiles", result.Compiles).Msg("build finished")
	return exitError(result.ExitCode, result.Err)
}
