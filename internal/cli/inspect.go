package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/nconklindev/sheetsync/internal/converter"
	"github.com/nconklindev/sheetsync/internal/ui"

	"github.com/spf13/cobra"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <book.xlsx>",
	Short: "Show the layout and formulas of a workbook",
	Long: `Show the layout and formulas of a workbook without converting it.

For every tab: its extent, column names, the first data row, and each
formula column with its cell formula, the references it uses and the form
it would take in JSON. Columns whose values look like dates or
percentages but are not configured as such are listed as hints.

Use --json for machine-readable output.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reports, err := converter.Inspect(args[0], newOptions(cmd, cfg))
	if err != nil {
		return err
	}
	if inspectJSON {
		return jsonPrint(cmd.OutOrStdout(), reports)
	}

	w := cmd.OutOrStdout()
	for _, r := range reports {
		printSheetReport(w, r)
	}
	return nil
}

func printSheetReport(w io.Writer, r converter.SheetReport) {
	extent := r.Extent
	if extent == "" {
		extent = "empty"
	}
	fmt.Fprintln(w, ui.TitleStyle.Render(fmt.Sprintf("%s (%s, %d rows)", r.Name, extent, r.Rows)))
	fmt.Fprintf(w, "  Columns:   %s\n", strings.Join(r.Columns, " | "))
	if len(r.FirstRow) > 0 {
		fmt.Fprintf(w, "  First row: %s\n", strings.Join(r.FirstRow, " | "))
	}
	if r.HeaderRow > 1 {
		fmt.Fprintln(w, ui.WarningStyle.Render(fmt.Sprintf("! row %d looks more like a header than row 1", r.HeaderRow)))
	}

	for _, f := range r.Formulas {
		fmt.Fprintf(w, "  %s %s\n", ui.SelectedStyle.Render(f.Column), ui.SubtitleStyle.UnsetMarginBottom().Render("("+f.Cell+")"))
		fmt.Fprintf(w, "    cell:       =%s\n", f.Positional)
		fmt.Fprintf(w, "    json:       %s\n", f.Symbolic)
		if len(f.References) > 0 {
			fmt.Fprintf(w, "    references: %s\n", strings.Join(f.References, ", "))
		}
		if f.Divergent > 0 {
			fmt.Fprintln(w, ui.WarningStyle.Render(fmt.Sprintf("    ! %d row(s) hold a different formula", f.Divergent)))
		}
	}

	for _, h := range r.Hints {
		fmt.Fprintln(w, ui.HelpStyle.UnsetMarginTop().Render("  hint: "+h.String()))
	}
}
