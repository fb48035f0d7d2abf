package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dosanma1/bundlekit/internal/compiler"
	"github.com/dosanma1/bundlekit/internal/compose"
	"github.com/dosanma1/bundlekit/internal/config"
	"github.com/dosanma1/bundlekit/internal/declaration"
	"github.com/dosanma1/bundlekit/internal/orchestrator"
	"github.com/dosanma1/bundlekit/internal/size"
	"github.com/dosanma1/bundlekit/internal/toolchain"
	"github.com/dosanma1/bundlekit/internal/workspace"
)

// session is the loaded workspace and configuration shared by every command.
type session struct {
	root     string
	cfg      *config.Config
	resolver *config.Resolver
	ws       *workspace.Workspace
	logger   zerolog.Logger
	out      io.Writer
}

// loadSession finds the workspace root, loads the configuration and enumerates packages.
func loadSession(out io.Writer) (*session, error) {
	if !colorEnabled(out) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	root, err := findWorkspaceRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(viper.New(), root, configFile)
	if err != nil {
		return nil, err
	}
	resolver := config.NewResolver(cfg)

	ws, err := workspace.Load(root, resolver.ResolvePackagesDir(packagesDir), cfg.Order)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	logger := log.Logger.With().Str("workspace", filepath.Base(root)).Logger()
	logger.Debug().Str("root", root).Strs("packages", ws.Names()).Msg("workspace loaded")

	return &session{root: root, cfg: cfg, resolver: resolver, ws: ws, logger: logger, out: out}, nil
}

// findWorkspaceRoot honours --dir and otherwise walks up from the current directory.
func findWorkspaceRoot() (string, error) {
	if workDir != "" {
		return filepath.Abs(workDir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := workspace.FindRoot(cwd)
	if err != nil {
		return "", fmt.Errorf("not in a bundlekit workspace: %w", err)
	}
	return root, nil
}

func (s *session) executor() *toolchain.Executor {
	return toolchain.NewExecutor(s.root, toolchain.WithLogger(s.logger))
}

func (s *session) composer() *compose.Composer {
	return compose.New(compose.WithEntry(s.cfg.Entry), compose.WithBrowserslist(s.cfg.Browserslist))
}

// compiler returns the configured backend; backend overrides the configuration when set.
func (s *session) compiler(exec *toolchain.Executor, backend string) (compiler.Compiler, error) {
	registry, err := compiler.NewRegistry(
		compiler.NewEsbuild(exec,
			compiler.WithPolyfills(s.cfg.Compiler.Polyfills),
			compiler.WithEsbuildLogger(s.logger),
		),
		compiler.NewExec(s.cfg.Compiler.Command, s.cfg.Compiler.Args, s.logger),
	)
	if err != nil {
		return nil, err
	}
	name := s.resolver.ResolveBackend(backend)
	c, err := registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, registry.List())
	}
	s.logger.Debug().Str("backend", c.Name()).Msg("compiler selected")
	return c, nil
}

// deps wires the orchestrator collaborators.
func (s *session) deps(backend string) (orchestrator.Deps, error) {
	exec := s.executor()
	c, err := s.compiler(exec, backend)
	if err != nil {
		return orchestrator.Deps{}, err
	}

	typeCheck := s.cfg.TypeCheck.Tool()
	extractor := declaration.NewExtractor(exec, s.cfg.Declarations.Tool())

	return orchestrator.Deps{
		Targets:  s.ws.Packages,
		Composer: s.composer(),
		Compiler: c,
		TypeChecker: orchestrator.TypeCheckFunc(func(ctx context.Context) error {
			return exec.TypeCheck(ctx, typeCheck)
		}),
		Declarations: declaration.NewBundler(extractor, s.cfg.Declarations.FragmentsDir, s.out, s.logger),
		Sizes:        size.NewReporter(),
		Out:          s.out,
		ProgressOut:  os.Stderr,
		Logger:       s.logger,
	}, nil
}

// colorEnabled reports whether w is a terminal.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// interactive reports whether prompts can be shown.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// exitError converts a failed run into an *ExitError. Failures that were already
// reported on the terminal carry no message.
func exitError(code int, err error) error {
	if code == orchestrator.ExitSuccess {
		return nil
	}
	var (
		tc *orchestrator.TypeCheckFailure
		cf *orchestrator.CompileFailure
		bf *declaration.BundleFailure
	)
	if errors.As(err, &tc) || errors.As(err, &cf) || errors.As(err, &bf) {
		err = nil
	}
	return &ExitError{Code: code, Err: err}
}
