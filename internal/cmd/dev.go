package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dosanma1/bundlekit/internal/format"
	"github.com/dosanma1/bundlekit/internal/ui"
	"github.com/dosanma1/bundlekit/internal/watch"
)

var (
	devFormats     string
	devSourceMap   bool
	devInteractive bool
	devDebounce    time.Duration
	devBackend     string
)

var devCmd = &cobra.Command{
	Use:     "dev [package]",
	Aliases: []string{"watch"},
	Short:   "Rebuild a package's development variants on change",
	Long: `Watch a single package and rebuild its development variants whenever a
file under its src directory changes. Production variants, type declarations
and size reports are never produced in this mode.

The package name is matched by prefix or substring. When several packages
match, the first one is used, or a picker is shown with --interactive.

Examples:
  bundlekit dev                 # Watch the default package
  bundlekit dev core -f esm     # Only rebuild the ES module
  bundlekit watch ui -i         # Pick among packages matching "ui"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDev,
}

func init() {
	devCmd.Flags().StringVarP(&devFormats, "formats", "f", "", "Only build these formats")
	devCmd.Flags().BoolVarP(&devSourceMap, "sourcemap", "s", false, "Emit source maps")
	devCmd.Flags().BoolVarP(&devInteractive, "interactive", "i", false, "Pick among several matching packages")
	devCmd.Flags().DurationVar(&devDebounce, "debounce", 0, "Quiet period before a rebuild (default from config)")
	devCmd.Flags().StringVar(&devBackend, "backend", "", "Compiler backend (esbuild|exec)")
	rootCmd.AddCommand(devCmd)
}

func runDev(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	c, err := s.compiler(s.executor(), devBackend)
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		// the fallback must name a package exactly
		def := s.resolver.ResolveTarget("")
		if _, ok := s.ws.Get(def); !ok {
			return fmt.Errorf("default target %q is not a package of this workspace; name one or set default_target", def)
		}
		name = def
	}

	opts := watch.Options{
		Formats:       format.ParseList(devFormats),
		SourceMap:     devSourceMap,
		DefaultTarget: s.resolver.ResolveTarget(""),
		Debounce:      s.resolver.ResolveDebounce(devDebounce),
		Ignore:        s.cfg.Watch.Ignore,
	}
	if devInteractive && interactive() {
		opts.Picker = ui.SelectPicker{}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := watch.NewCoordinator(s.ws.Packages, s.composer(), c, opts, s.out, s.logger)
	return coordinator.Watch(ctx, name)
}
