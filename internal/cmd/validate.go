package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dosanma1/bundlekit/internal/orchestrator"
	"github.com/dosanma1/bundlekit/internal/ui"
	"github.com/dosanma1/bundlekit/internal/workspace"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate package.json build metadata",
	Long: `Validates the package.json of every buildable package against the JSON Schema
of the buildOptions block, and checks package directory names.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "%s %s\n", ui.IconTool, ui.TitleStyle.Render(fmt.Sprintf("Validating %d packages...", len(s.ws.Packages))))

	validator, err := workspace.NewValidator()
	if err != nil {
		return err
	}
	problems, err := validator.Validate(s.ws)
	if err != nil {
		return err
	}

	if len(problems) == 0 {
		fmt.Fprintf(s.out, "%s %s\n", ui.IconSuccess, ui.SuccessStyle.Render("All packages are valid"))
		return nil
	}

	fmt.Fprintf(s.out, "%s %s\n", ui.IconError, ui.ErrorStyle.Render(fmt.Sprintf("Found %d problems:", len(problems))))
	for _, p := range problems {
		fmt.Fprintf(s.out, "   - %s\n", p)
	}
	return &ExitError{Code: orchestrator.ExitFailure}
}
