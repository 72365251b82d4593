package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetsync/internal/types"
	"github.com/nconklindev/sheetsync/internal/ui"
)

// ExitError signals a non-zero exit code without printing an error message.
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return "" }

func jsonPrint(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, result *types.ConversionResult) {
	fmt.Fprintln(w, ui.SuccessStyle.Render("✓ Wrote "+result.OutputFile))
	fmt.Fprintf(w, "  Sheets:          %s\n", strings.Join(result.Sheets, ", "))
	fmt.Fprintf(w, "  Formula columns: %d\n", result.FormulaColumns)
	fmt.Fprintf(w, "  Rows:            %d\n", result.RowsProcessed)
	if result.BackupFile != "" {
		fmt.Fprintf(w, "  Backup:          %s\n", filepath.ToSlash(result.BackupFile))
	}
	printWarnings(w, result.Warnings)
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintln(w, ui.WarningStyle.Render("! "+msg))
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, ui.ErrorStyle.Render("✗ "+err.Error()))
}
