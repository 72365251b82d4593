package converter

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		suffix string
		want   string
	}{
		{"JSON to template", filepath.Join("data", "店铺.json"), "-模板", filepath.Join("data", "店铺-模板.xlsx")},
		{"Template back to JSON", filepath.Join("data", "店铺-模板.xlsx"), "-模板", filepath.Join("data", "店铺.json")},
		{"Workbook without suffix", "report.XLSX", "-模板", "report.json"},
		{"Empty suffix", "report.json", "", "report.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultOutput(tt.input, tt.suffix)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("DefaultOutput(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}

	if _, err := DefaultOutput("data.csv", ""); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("err = %v; want ErrUnsupportedFile", err)
	}
}
