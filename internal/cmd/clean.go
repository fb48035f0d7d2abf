package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dosanma1/bundlekit/internal/target"
	"github.com/dosanma1/bundlekit/internal/ui"
	"github.com/dosanma1/bundlekit/pkg/xos"
)

var (
	cleanAll bool
	cleanYes bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [package...]",
	Short: "Remove build output",
	Long: `Remove the dist directory of each named package, or of every package when
none is named. Cleaning every package asks for confirmation on a terminal.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanAll, "all", "a", false, "Match package names by prefix or substring")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Do not ask for confirmation when cleaning every package")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	targets, err := target.Resolve(s.ws.Packages, args, cleanAll)
	if err != nil {
		return err
	}

	if len(args) == 0 && !cleanYes && interactive() {
		ok, err := ui.Confirm(fmt.Sprintf("Remove dist of all %d packages", len(targets)), nil, nil)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "Cancelled.")
			return nil
		}
	}

	for _, t := range targets {
		s.logger.Debug().Str("dir", t.DistDir()).Msg("removing")
		if err := xos.RemovePaths(t.DistDir()); err != nil {
			return fmt.Errorf("failed to remove %s: %w", t.DistDir(), err)
		}
	}

	fmt.Fprintf(s.out, "%s %s\n", ui.IconSuccess, ui.SuccessStyle.Render(fmt.Sprintf("Cleaned %d packages", len(targets))))
	return nil
}
