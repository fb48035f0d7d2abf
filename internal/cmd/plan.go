package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dosanma1/bundlekit/internal/orchestrator"
)

var (
	planOpts       matrixFlags
	planProduction bool
	planOutput     string
)

var planCmd = &cobra.Command{
	Use:   "plan [package...]",
	Short: "Show the variants a build would compile",
	Long: `Resolve packages and formats and print every variant a build would compile,
in order, without running anything.

Examples:
  bundlekit plan                         # Everything a plain build does
  bundlekit plan core -f esm/browser -d  # Development variants of two formats
  bundlekit plan -t -o yaml              # Include declarations, as YAML`,
	RunE: runPlan,
}

func init() {
	planOpts.register(planCmd.Flags())
	planCmd.Flags().BoolVar(&planProduction, "production", true, "Plan a production run (production variants and declarations)")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	out, err := parseOutputFormat(planOutput)
	if err != nil {
		return err
	}

	s, err := loadSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	opts := orchestrator.DefaultBuildOptions()
	opts.Production = planProduction
	opts = planOpts.apply(opts)

	o := orchestrator.New(orchestrator.Deps{Targets: s.ws.Packages, Composer: s.composer(), Logger: s.logger}, opts)
	plans, err := o.Plan(args)
	if err != nil {
		return &ExitError{Code: orchestrator.ExitCodeFor(err), Err: err}
	}

	if out != outputTable {
		return printStructured(s.out, out, plans)
	}
	renderPlans(s.out, plans)
	return nil
}

func renderPlans(w io.Writer, plans []orchestrator.Plan) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Target", "Variant", "Module", "Input", "Output", "Plugins"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, p := range plans {
		for _, v := range p.Variants {
			output := relTo(p.Target.Root, v.Output)
			if v.Output == "" {
				output = relTo(p.Target.Root, v.OutDir) + "/"
			}
			steps := make([]string, len(v.Plugins))
			for i, step := range v.Plugins {
				steps[i] = string(step.Kind)
			}
			table.Append([]string{p.Target.Name, v.Name(), string(v.Module), relTo(p.Target.Root, v.Input), output, strings.Join(steps, " > ")})
		}
	}
	table.Render()
	fmt.Fprintf(w, "\n%d targets, %d variants\n", len(plans), countPlanVariants(plans))
}

// relTo shortens path to be relative to root when possible.
func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func countPlanVariants(plans []orchestrator.Plan) int {
	n := 0
	for _, p := range plans {
		n += len(p.Variants)
	}
	return n
}
