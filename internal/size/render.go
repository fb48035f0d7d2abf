package size

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/dosanma1/bundlekit/internal/ui"
)

// Render prints one line per report.
func Render(w io.Writer, reports []Report) {
	if len(reports) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, r := range reports {
		fmt.Fprintf(w, "%s min:%s / gzip:%s / brotli:%s\n",
			ui.FileStyle.Render(r.File), KB(r.Raw), KB(r.Gzip), KB(r.Brotli))
	}
	fmt.Fprintln(w)
}

// RenderTable prints the reports as a table.
func RenderTable(w io.Writer, reports []Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Target", "File", "Min", "Gzip", "Brotli"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range reports {
		table.Append([]string{r.Target, r.File, KB(r.Raw), KB(r.Gzip), KB(r.Brotli)})
	}
	table.Render()
}
