// Package cmd implements the bundlekit command line.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is set at link time.
var Version = "dev"

var (
	configFile  string
	workDir     string
	packagesDir string
	debug       bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "bundlekit",
	Short: "bundlekit - build matrix orchestration for JS/TS packages",
	Long: `bundlekit builds every package of a workspace into the formats it declares:
CommonJS and ES modules for bundlers, and browser bundles for script tags.

Each package is compiled in development and production flavours, optionally
with a rolled-up type declarations file, and browser bundles are measured
raw, gzipped and brotli-compressed.

Examples:
  bundlekit build                        # Build every package
  bundlekit build core -f esm/browser    # Rebuild two formats of one package
  bundlekit dev                          # Watch the default package
  bundlekit plan -o yaml core            # Show what a build would do`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command. A non-nil error may be an *ExitError carrying the
// process exit status.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is bundlekit.yaml in the workspace root)")
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", "", "workspace root (default is discovered from the current directory)")
	rootCmd.PersistentFlags().StringVar(&packagesDir, "packages", "", "packages directory relative to the workspace root")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
}

func setupLogging() {
	level := zerolog.InfoLevel
	switch {
	case debug:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !colorEnabled(os.Stderr)}).
		With().Timestamp().Logger()
}
