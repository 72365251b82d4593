package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nconklindev/sheetsync/internal/fileutil"
	"github.com/nconklindev/sheetsync/internal/normalize"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DateColumns              []string `yaml:"date_columns"`
	MonthColumns             []string `yaml:"month_columns"`
	PercentSuffix            string   `yaml:"percent_suffix"`
	PercentFractionThreshold float64  `yaml:"percent_fraction_threshold"`
	StrictFormulas           bool     `yaml:"strict_formulas"`
	Backup                   bool     `yaml:"backup"`
	// BackupDir is resolved against the directory of the JSON output when
	// relative.
	BackupDir      string `yaml:"backup_dir"`
	SchemaRef      string `yaml:"schema_ref"`
	TemplateSuffix string `yaml:"template_suffix"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	rules := normalize.DefaultRules()
	return Config{
		DateColumns:              rules.DateColumns,
		MonthColumns:             rules.MonthColumns,
		PercentSuffix:            rules.PercentSuffix,
		PercentFractionThreshold: rules.PercentFractionThreshold,
		Backup:                   true,
		BackupDir:                "backup",
		SchemaRef:                "../schema/schema.json",
		TemplateSuffix:           "-模板",
	}
}

// Rules returns the column naming rules of the config.
func (c Config) Rules() normalize.Rules {
	return normalize.Rules{
		DateColumns:              c.DateColumns,
		MonthColumns:             c.MonthColumns,
		PercentSuffix:            c.PercentSuffix,
		PercentFractionThreshold: c.PercentFractionThreshold,
	}
}

// BackupPath returns the backup directory for a JSON output file.
func (c Config) BackupPath(output string) string {
	if filepath.IsAbs(c.BackupDir) {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(output), c.BackupDir)
}

func (c Config) validate() error {
	if c.PercentFractionThreshold < 0 {
		return fmt.Errorf("percent_fraction_threshold must not be negative, got %v", c.PercentFractionThreshold)
	}
	if c.Backup && c.BackupDir == "" {
		return fmt.Errorf("backup_dir must be set when backup is enabled")
	}
	return nil
}

func dir() (string, error) {
	if v := os.Getenv("SHEETSYNC_CONFIG_DIR"); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "sheetsync"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sheetsync"), nil
}

// Path returns the location of the default config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing default file yields Default(); a missing explicit file is
// an error. Keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path through a temp file and rename.
func Save(path string, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return fileutil.WriteFile(path, data, 0o644)
}
