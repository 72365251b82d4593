package normalize

import (
	"testing"
	"time"

	"github.com/nconklindev/sheetsync/internal/types"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		month bool
		want  string
	}{
		{"Pads month and day", "2024-3-5", false, "2024-03-05"},
		{"Already canonical", "2024-03-05", false, "2024-03-05"},
		{"Slashes", "2024/3/5", false, "2024-03-05"},
		{"Dots", "2024.12.31", false, "2024-12-31"},
		{"Surrounding space", " 2024-3-5 ", false, "2024-03-05"},
		{"Month from month", "2024-3", true, "2024-03"},
		{"Month from full date", "2024-3-5", true, "2024-03"},
		{"Month without day in date column", "2024-3", false, "2024-3"},
		{"Invalid month", "2024-13-01", false, "2024-13-01"},
		{"Invalid day", "2023-02-29", false, "2023-02-29"},
		{"Leap day", "2024-2-29", false, "2024-02-29"},
		{"Free text", "next tuesday", false, "next tuesday"},
		{"Empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDate(tt.input, tt.month); got != tt.want {
				t.Errorf("NormalizeDate(%q, %v) = %q; want %q", tt.input, tt.month, got, tt.want)
			}
		})
	}
}

func TestNormalizeDateIdempotent(t *testing.T) {
	once := NormalizeDate("2024-3-5", false)
	if once != "2024-03-05" {
		t.Fatalf("first pass = %q", once)
	}
	if twice := NormalizeDate(once, false); twice != once {
		t.Errorf("second pass = %q; want %q", twice, once)
	}
}

func TestFromCellDateEncodings(t *testing.T) {
	rules := DefaultRules()
	native := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		column string
		cell   Cell
		want   string
	}{
		{"Text cell", "日期", Cell{Kind: KindString, Str: "2024-3-5"}, "2024-03-05"},
		{"Native date cell", "日期", Cell{Kind: KindDate, Time: native}, "2025-02-03"},
		// 1900 date system: serial 45658 is 2025-01-01.
		{"Serial new year", "日期", Cell{Kind: KindNumber, Num: 45658}, "2025-01-01"},
		{"Serial", "日期", Cell{Kind: KindNumber, Num: 45691}, "2025-02-03"},
		{"Serial with time", "日期", Cell{Kind: KindNumber, Num: 45691.75}, "2025-02-03"},
		{"Month serial", "月份", Cell{Kind: KindNumber, Num: 45691}, "2025-02"},
		{"Month text", "月份", Cell{Kind: KindString, Str: "2025-2"}, "2025-02"},
		{"Month native", "月份", Cell{Kind: KindDate, Time: native}, "2025-02"},
		{"Malformed text passes through", "日期", Cell{Kind: KindString, Str: "tbd"}, "tbd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.FromCell(tt.column, tt.cell)
			if got.IsNumber() || got.String() != tt.want {
				t.Errorf("FromCell(%q, %+v) = %v; want %q", tt.column, tt.cell, got, tt.want)
			}
		})
	}
}

func TestFromCellSerialOutOfRangeStaysNumeric(t *testing.T) {
	rules := DefaultRules()
	for _, n := range []float64{0, 0.5, 100000, 250000} {
		got := rules.FromCell("日期", Cell{Kind: KindNumber, Num: n})
		if !got.IsNumber() {
			t.Errorf("serial %v should stay numeric, got %v", n, got)
		}
	}
}

func TestFromCellDate1904(t *testing.T) {
	rules := DefaultRules()
	rules.Date1904 = true
	// 1904 system: serial 0 is 1904-01-01.
	got := rules.FromCell("日期", Cell{Kind: KindNumber, Num: 1500})
	if got.String() != "1908-02-09" {
		t.Errorf("1904 serial 1500 = %v; want 1908-02-09", got)
	}
}

func TestPercentHeuristic(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"Fraction", Cell{Kind: KindNumber, Num: 0.332}, "33.2%"},
		{"Already scaled", Cell{Kind: KindNumber, Num: 33.2}, "33.2%"},
		{"Boundary is a fraction", Cell{Kind: KindNumber, Num: 2.0}, "200.0%"},
		{"Just above boundary", Cell{Kind: KindNumber, Num: 2.01}, "2.0%"},
		{"Negative fraction", Cell{Kind: KindNumber, Num: -0.05}, "-5.0%"},
		{"Zero", Cell{Kind: KindNumber, Num: 0}, "0.0%"},
		{"String fraction", Cell{Kind: KindString, Str: "0.5"}, "50.0%"},
		{"String scaled", Cell{Kind: KindString, Str: "45"}, "45.0%"},
		{"Already a percent string", Cell{Kind: KindString, Str: "12.34%"}, "12.34%"},
		{"Unparsable", Cell{Kind: KindString, Str: "n/a"}, "n/a"},
		{"Empty", Cell{Kind: KindEmpty}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.FromCell("毛利率%", tt.cell)
			if got.IsNumber() || got.String() != tt.want {
				t.Errorf("FromCell(%+v) = %v; want %q", tt.cell, got, tt.want)
			}
		})
	}
}

func TestPercentThresholdIsConfigurable(t *testing.T) {
	rules := DefaultRules()
	rules.PercentFractionThreshold = 1
	if got := rules.FormatPercent(2.0); got != "2.0%" {
		t.Errorf("FormatPercent(2.0) with threshold 1 = %q; want 2.0%%", got)
	}
	if got := rules.FormatPercent(1.0); got != "100.0%" {
		t.Errorf("FormatPercent(1.0) with threshold 1 = %q; want 100.0%%", got)
	}
}

func TestPercentFromDisplayFormat(t *testing.T) {
	rules := DefaultRules()
	got := rules.FromCell("毛利率", Cell{Kind: KindNumber, Num: 0.25, Format: "0.00%"})
	if got.String() != "25.0%" {
		t.Errorf("percent-formatted cell = %v; want 25.0%%", got)
	}
}

func TestPlainTypePreference(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name   string
		cell   Cell
		want   string
		number bool
	}{
		{"Number", Cell{Kind: KindNumber, Num: 12.5, Display: "12.50"}, "12.5", true},
		{"String", Cell{Kind: KindString, Str: "abc"}, "abc", false},
		{"True", Cell{Kind: KindBool, Bool: true}, "TRUE", false},
		{"False", Cell{Kind: KindBool}, "FALSE", false},
		{"Error falls back to display", Cell{Kind: KindError, Display: "#DIV/0!"}, "#DIV/0!", false},
		{"Empty", Cell{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.FromCell("备注", tt.cell)
			if got.String() != tt.want || got.IsNumber() != tt.number {
				t.Errorf("FromCell(%+v) = %v (number=%v); want %q (number=%v)", tt.cell, got, got.IsNumber(), tt.want, tt.number)
			}
		})
	}
}

func TestFromJSON(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name   string
		column string
		input  types.Value
		want   types.Value
	}{
		{"Date string", "日期", types.String("2024-3-5"), types.String("2024-03-05")},
		{"Date serial", "日期", types.Number(45658), types.String("2025-01-01")},
		{"Month string", "月份", types.String("2024-3"), types.String("2024-03")},
		{"Percent number", "毛利率%", types.Number(0.332), types.String("33.2%")},
		{"Percent string", "毛利率%", types.String("33.2%"), types.String("33.2%")},
		{"Plain number", "销量", types.Number(3), types.Number(3)},
		{"Plain string", "备注", types.String("x"), types.String("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules.FromJSON(tt.column, tt.input)
			if got != tt.want {
				t.Errorf("FromJSON(%q, %v) = %v; want %v", tt.column, tt.input, got, tt.want)
			}
		})
	}
}

func TestPercentToFraction(t *testing.T) {
	if n, ok := PercentToFraction("33.2%"); !ok || n < 0.33199 || n > 0.33201 {
		t.Errorf("PercentToFraction(33.2%%) = %v, %v", n, ok)
	}
	if _, ok := PercentToFraction("33.2"); ok {
		t.Error("expected failure without % suffix")
	}
	if _, ok := PercentToFraction("abc%"); ok {
		t.Error("expected failure for non-numeric text")
	}
}

func TestClassify(t *testing.T) {
	rules := DefaultRules()
	if rules.Classify("日期") != ClassDate || rules.Classify("月份") != ClassMonth {
		t.Error("temporal columns misclassified")
	}
	if !rules.IsPercent("转化率%") || rules.IsPercent("转化率") {
		t.Error("percent suffix misclassified")
	}
	if !rules.IsTemporal("月份") || rules.IsTemporal("销量") {
		t.Error("IsTemporal mismatch")
	}
}

func TestClassText(t *testing.T) {
	tests := []struct {
		class Class
		want  string
	}{
		{ClassPlain, "plain"},
		{ClassDate, "date"},
		{ClassMonth, "month"},
		{ClassPercent, "percentage"},
	}

	for _, tt := range tests {
		text, err := tt.class.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		if string(text) != tt.want {
			t.Errorf("MarshalText(%d) = %q; want %q", tt.class, text, tt.want)
		}
	}
}
