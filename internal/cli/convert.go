package cli

import (
	"github.com/nconklindev/sheetsync/internal/converter"

	"github.com/spf13/cobra"
)

var (
	toXLSXOutput string

	toJSONOutput   string
	toJSONStrict   bool
	toJSONNoBackup bool
)

var toXLSXCmd = &cobra.Command{
	Use:   "to-xlsx <data.json>",
	Short: "Write a JSON dataset as an Excel workbook",
	Long: `Write a JSON dataset as an Excel workbook.

Every sheet of the dataset becomes a tab. Column formulas are written to
each data row as cell references, cross-sheet columns as absolute ranges
over all data rows of the other sheet.

The default output sits next to the input with the template suffix
appended, e.g. data/店铺.json -> data/店铺-模板.xlsx.

Examples:
  sheetsync to-xlsx data/店铺.json
  sheetsync to-xlsx data/店铺.json -o render/店铺.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runToXLSX,
}

var toJSONCmd = &cobra.Command{
	Use:   "to-json <book.xlsx>",
	Short: "Read an Excel workbook back into a JSON dataset",
	Long: `Read an Excel workbook back into a JSON dataset.

Row 1 of every tab holds the column names. Formulas are turned back into
column names; when the rows of a column disagree the first row wins and a
warning is printed, or the conversion fails with --strict (exit code 2).

An existing output file is copied into the backup directory first unless
--no-backup is given or backups are disabled in the config.

Examples:
  sheetsync to-json render/店铺.xlsx -o data/店铺.json
  sheetsync to-json render/店铺.xlsx --strict`,
	Args: cobra.ExactArgs(1),
	RunE: runToJSON,
}

func init() {
	toXLSXCmd.Flags().StringVarP(&toXLSXOutput, "output", "o", "", "Output workbook path")
	rootCmd.AddCommand(toXLSXCmd)

	toJSONCmd.Flags().StringVarP(&toJSONOutput, "output", "o", "", "Output JSON path")
	toJSONCmd.Flags().BoolVar(&toJSONStrict, "strict", false, "Fail when the rows of a formula column disagree")
	toJSONCmd.Flags().BoolVar(&toJSONNoBackup, "no-backup", false, "Do not back up an existing output file")
	rootCmd.AddCommand(toJSONCmd)
}

func runToXLSX(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	output := toXLSXOutput
	if output == "" {
		if output, err = converter.DefaultOutput(args[0], cfg.TemplateSuffix); err != nil {
			return err
		}
	}

	result, err := converter.ConvertJSON(args[0], output, newOptions(cmd, cfg), nil)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func runToJSON(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	output := toJSONOutput
	if output == "" {
		if output, err = converter.DefaultOutput(args[0], cfg.TemplateSuffix); err != nil {
			return err
		}
	}

	opts := newOptions(cmd, cfg)
	opts.Strict = flagOr(cmd.Flags(), "strict", opts.Strict)

	backupDir := ""
	if !flagOr(cmd.Flags(), "no-backup", !cfg.Backup) {
		backupDir = cfg.BackupPath(output)
	}

	result, err := converter.ConvertXLSX(args[0], output, backupDir, opts, nil)
	if err != nil {
		if converter.IsDivergentFormula(err) {
			printError(cmd.ErrOrStderr(), err)
			return &ExitError{Code: 2}
		}
		return err
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}
