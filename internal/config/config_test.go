package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("SHEETSYNC_CONFIG_DIR", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(cfg.DateColumns, []string{"日期"}) || cfg.PercentFractionThreshold != 2 || !cfg.Backup {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing explicit config")
	}
}

func TestLoad_ConfigFileIsDirectory(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("SHEETSYNC_CONFIG_DIR", tmp)

	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.Mkdir(cfgPath, 0o755); err != nil {
		t.Fatalf("setup config dir: %v", err)
	}

	if _, err := Load(""); err == nil {
		t.Fatalf("expected read error when config file is a directory")
	} else if os.IsNotExist(err) {
		t.Fatalf("expected non-ENOENT error, got %v", err)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "date_columns: [日期, 下单日]\npercent_fraction_threshold: 1\nstrict_formulas: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(cfg.DateColumns, []string{"日期", "下单日"}) {
		t.Errorf("DateColumns = %v", cfg.DateColumns)
	}
	if cfg.PercentFractionThreshold != 1 || !cfg.StrictFormulas {
		t.Errorf("unexpected values %+v", cfg)
	}
	if !slices.Equal(cfg.MonthColumns, []string{"月份"}) || cfg.PercentSuffix != "%" || cfg.TemplateSuffix != "-模板" {
		t.Errorf("defaults lost: %+v", cfg)
	}

	rules := cfg.Rules()
	if !rules.IsTemporal("下单日") || rules.PercentFractionThreshold != 1 {
		t.Errorf("unexpected rules %+v", rules)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Negative threshold", "percent_fraction_threshold: -1\n"},
		{"Backup without dir", "backup: true\nbackup_dir: \"\"\n"},
		{"Malformed YAML", "date_columns: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("SHEETSYNC_CONFIG_DIR", tmp)

	p, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(tmp, "config.yaml") {
		t.Fatalf("Path = %q", p)
	}

	cfg := Default()
	cfg.MonthColumns = []string{"月份", "期间"}
	cfg.Backup = false
	if err := Save(p, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(got.MonthColumns, cfg.MonthColumns) || got.Backup {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestBackupPath(t *testing.T) {
	cfg := Default()
	if got, want := cfg.BackupPath(filepath.Join("data", "x.json")), filepath.Join("data", "backup"); got != want {
		t.Errorf("BackupPath = %q; want %q", got, want)
	}
	abs := filepath.Join(t.TempDir(), "bk")
	cfg.BackupDir = abs
	if got := cfg.BackupPath("x.json"); got != abs {
		t.Errorf("BackupPath = %q; want %q", got, abs)
	}
}
