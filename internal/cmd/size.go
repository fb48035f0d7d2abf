package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dosanma1/bundlekit/internal/size"
	"github.com/dosanma1/bundlekit/internal/target"
	"github.com/dosanma1/bundlekit/internal/ui"
)

var (
	sizeAll    bool
	sizeOutput string
)

var sizeCmd = &cobra.Command{
	Use:   "size [package...]",
	Short: "Report the sizes of built browser bundles",
	Long: `Measure the production browser bundles already present in each package's
dist directory: raw, gzip and brotli sizes. Nothing is built.

Examples:
  bundlekit size                 # Every package
  bundlekit size core -o json    # One package, as JSON`,
	RunE: runSize,
}

func init() {
	sizeCmd.Flags().BoolVarP(&sizeAll, "all", "a", false, "Match package names by prefix or substring")
	sizeCmd.Flags().StringVarP(&sizeOutput, "output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.AddCommand(sizeCmd)
}

func runSize(cmd *cobra.Command, args []string) error {
	out, err := parseOutputFormat(sizeOutput)
	if err != nil {
		return err
	}

	s, err := loadSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	targets, err := target.Resolve(s.ws.Packages, args, sizeAll)
	if err != nil {
		return err
	}

	reports, measureErr := size.NewReporter().Report(targets)
	if measureErr != nil {
		measureErr = fmt.Errorf("failed to measure bundles: %w", measureErr)
		if len(reports) == 0 {
			return measureErr
		}
	}

	if out != outputTable {
		if err := printStructured(s.out, out, reports); err != nil {
			return err
		}
		return measureErr
	}
	if len(reports) == 0 {
		fmt.Fprintf(s.out, "%s %s\n", ui.IconWarning, ui.WarningStyle.Render("No production browser bundles found. Run bundlekit build first."))
		return nil
	}
	size.RenderTable(s.out, reports)
	return measureErr
}
