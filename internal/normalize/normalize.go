// Package normalize canonicalizes cell values moving between a workbook and
// the JSON dataset.
//
// Date and month columns are stored as "YYYY-MM-DD" / "YYYY-MM" strings and
// percentage columns as one-decimal strings like "33.2%". Everything else
// passes through. Normalization never fails: values that cannot be
// interpreted are returned unchanged.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nconklindev/sheetsync/internal/types"

	"github.com/xuri/excelize/v2"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"

	// serials outside [minSerial, maxSerial) are never read as dates
	minSerial = 1
	maxSerial = 100000
)

// Class is the semantic class of a column.
type Class int

const (
	ClassPlain Class = iota
	ClassDate
	ClassMonth
	ClassPercent
)

func (c Class) String() string {
	switch c {
	case ClassPlain:
		return "plain"
	case ClassDate:
		return "date"
	case ClassMonth:
		return "month"
	case ClassPercent:
		return "percentage"
	default:
		return "unknown"
	}
}

// MarshalText encodes the class by name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Rules decides which columns hold dates, months and percentages.
type Rules struct {
	DateColumns  []string
	MonthColumns []string
	// PercentSuffix marks percentage columns by name suffix.
	PercentSuffix string
	// PercentFractionThreshold: numbers with an absolute value up to and
	// including the threshold are fractions (0.332 -> 33.2%), larger ones
	// are already scaled (33.2 -> 33.2%).
	PercentFractionThreshold float64
	// Date1904 selects the 1904 date system for day serials.
	Date1904 bool
}

// DefaultRules returns the naming conventions of the shop statistics
// workbooks.
func DefaultRules() Rules {
	return Rules{
		DateColumns:              []string{"日期"},
		MonthColumns:             []string{"月份"},
		PercentSuffix:            "%",
		PercentFractionThreshold: 2,
	}
}

// Classify returns the class of a column from its name alone.
func (r Rules) Classify(column string) Class {
	switch {
	case slices.Contains(r.MonthColumns, column):
		return ClassMonth
	case slices.Contains(r.DateColumns, column):
		return ClassDate
	case r.PercentSuffix != "" && strings.HasSuffix(column, r.PercentSuffix):
		return ClassPercent
	default:
		return ClassPlain
	}
}

// IsPercent reports whether a column is a percentage column.
func (r Rules) IsPercent(column string) bool {
	return r.Classify(column) == ClassPercent
}

// IsTemporal reports whether a column holds dates or months.
func (r Rules) IsTemporal(column string) bool {
	c := r.Classify(column)
	return c == ClassDate || c == ClassMonth
}

// FromCell converts a cell read from a workbook into its JSON value.
func (r Rules) FromCell(column string, c Cell) types.Value {
	class := r.Classify(column)
	if class == ClassPlain && strings.Contains(c.Format, "%") {
		class = ClassPercent
	}

	v := r.rawValue(class, c)
	if class == ClassPercent {
		return r.percentValue(v)
	}
	return v
}

// rawValue picks the cell's value: number, string, boolean, display text,
// then empty. Temporal columns are converted to their canonical strings.
func (r Rules) rawValue(class Class, c Cell) types.Value {
	temporal := class == ClassDate || class == ClassMonth
	switch c.Kind {
	case KindNumber:
		if temporal {
			if s, ok := r.serialToString(c.Num, class); ok {
				return types.String(s)
			}
		}
		return types.Number(c.Num)
	case KindString:
		if temporal {
			return types.String(NormalizeDate(c.Str, class == ClassMonth))
		}
		return types.String(c.Str)
	case KindDate:
		if temporal {
			return types.String(formatTime(c.Time, class))
		}
		if c.Display != "" {
			return types.String(c.Display)
		}
		return types.String(c.Time.Format(dateLayout))
	case KindBool:
		if c.Bool {
			return types.String("TRUE")
		}
		return types.String("FALSE")
	}
	if c.Display != "" {
		return types.String(c.Display)
	}
	return types.String(c.Str)
}

// FromJSON canonicalizes a dataset value before it is written to a
// workbook, so both directions agree on the stored form.
func (r Rules) FromJSON(column string, v types.Value) types.Value {
	class := r.Classify(column)
	switch class {
	case ClassDate, ClassMonth:
		if n, ok := v.Num(); ok {
			if s, ok := r.serialToString(n, class); ok {
				return types.String(s)
			}
			return v
		}
		s, _ := v.Str()
		return types.String(NormalizeDate(s, class == ClassMonth))
	case ClassPercent:
		return r.percentValue(v)
	}
	return v
}

func (r Rules) percentValue(v types.Value) types.Value {
	if v.IsEmpty() {
		return v
	}
	if n, ok := v.Num(); ok {
		return types.String(r.FormatPercent(n))
	}
	s, _ := v.Str()
	if strings.HasSuffix(s, "%") {
		return v
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return v
	}
	return types.String(r.FormatPercent(n))
}

// FormatPercent renders a number as a one-decimal percentage, scaling
// fractions by 100.
func (r Rules) FormatPercent(n float64) string {
	if math.Abs(n) <= r.PercentFractionThreshold {
		n *= 100
	}
	return strconv.FormatFloat(n, 'f', 1, 64) + "%"
}

// PercentToFraction parses "33.2%" into 0.332.
func PercentToFraction(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil {
		return 0, false
	}
	return n / 100, true
}

func (r Rules) serialToString(serial float64, class Class) (string, bool) {
	if serial < minSerial || serial >= maxSerial {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, r.Date1904)
	if err != nil {
		return "", false
	}
	return formatTime(t, class), true
}

func formatTime(t time.Time, class Class) string {
	if class == ClassMonth {
		return t.Format(monthLayout)
	}
	return t.Format(dateLayout)
}

var looseDateRe = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})(?:[-/.](\d{1,2}))?$`)

// NormalizeDate canonicalizes loosely written dates such as "2024-3-5" or
// "2024/03/05". With month set the result is "YYYY-MM" and a day part is
// optional. Strings that are not valid dates are returned unchanged.
func NormalizeDate(s string, month bool) string {
	m := looseDateRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return s
	}
	year, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	if mon < 1 || mon > 12 {
		return s
	}
	if m[3] == "" {
		if !month {
			return s
		}
		return fmt.Sprintf("%04d-%02d", year, mon)
	}
	day, _ := strconv.Atoi(m[3])
	t := time.Date(year, time.Month(mon), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != mon {
		return s
	}
	if month {
		return t.Format(monthLayout)
	}
	return t.Format(dateLayout)
}
