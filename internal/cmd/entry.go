package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dosanma1/bundlekit/internal/entry"
	"github.com/dosanma1/bundlekit/internal/target"
	"github.com/dosanma1/bundlekit/internal/ui"
)

var entryAll bool

var entryCmd = &cobra.Command{
	Use:   "entry [package...]",
	Short: "Write the runtime-dispatch index.js of packages",
	Long: `Write index.js into each package root. The module requires the production
CommonJS artifact when NODE_ENV is "production" and the development one otherwise.`,
	RunE: runEntry,
}

func init() {
	entryCmd.Flags().BoolVarP(&entryAll, "all", "a", false, "Match package names by prefix or substring")
	rootCmd.AddCommand(entryCmd)
}

func runEntry(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	targets, err := target.Resolve(s.ws.Packages, args, entryAll)
	if err != nil {
		return err
	}

	engine, err := entry.NewEngine()
	if err != nil {
		return err
	}
	for _, t := range targets {
		path, err := engine.Write(t)
		if err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
		fmt.Fprintf(s.out, "%s %s\n", ui.IconSuccess, ui.FileStyle.Render(path))
	}
	return nil
}
