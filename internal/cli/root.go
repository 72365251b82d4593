package cli

import (
	"fmt"
	"log"

	"github.com/nconklindev/sheetsync/internal/config"
	"github.com/nconklindev/sheetsync/internal/converter"
	"github.com/nconklindev/sheetsync/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sheetsync",
	Short: "Convert JSON datasets to Excel workbooks and back, formulas included",
	Long: `sheetsync keeps a JSON dataset and an Excel workbook in sync.

Formulas are stored in JSON by column name ("销量*售价",
"SUM(采购明细!价格)") and written to the workbook as cell references
for every data row. Reading the workbook turns them back into names.

Run without a subcommand to pick a file interactively.`,
	Version:       "dev",
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $SHEETSYNC_CONFIG_DIR/config.yaml or ~/.config/sheetsync/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log conversion warnings to stderr")
}

// SetVersion sets the build information shown by --version.
func SetVersion(version, commit, date string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("sheetsync %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
}

func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newOptions(cmd *cobra.Command, cfg config.Config) converter.Options {
	opts := converter.Options{
		Rules:     cfg.Rules(),
		Strict:    cfg.StrictFormulas,
		SchemaRef: cfg.SchemaRef,
	}
	if verbose {
		opts.Logger = log.New(cmd.ErrOrStderr(), "sheetsync: ", 0)
	}
	return opts
}

// flagOr returns the value of a bool flag when it was set on the command
// line, and fallback otherwise.
func flagOr(fs *pflag.FlagSet, name string, fallback bool) bool {
	if !fs.Changed(name) {
		return fallback
	}
	v, err := fs.GetBool(name)
	if err != nil {
		return fallback
	}
	return v
}

func runUI(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := tea.NewProgram(ui.InitialModel(cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
