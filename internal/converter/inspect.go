package converter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nconklindev/sheetsync/internal/coord"
	"github.com/nconklindev/sheetsync/internal/formula"
	"github.com/nconklindev/sheetsync/internal/normalize"

	"github.com/xuri/efp"
	"github.com/xuri/excelize/v2"
)

const RowDetectionLimit = 10

// SheetReport describes one sheet of an inspected workbook.
type SheetReport struct {
	Name     string
	Extent   string // e.g. "A1:C4", empty for a blank sheet
	Columns  []string
	Rows     int
	FirstRow []string // display values of the first data row
	Formulas []FormulaReport
	Hints    []ColumnHint
	// HeaderRow is the 1-based row that looks most like a header. Anything
	// other than 1 means the sheet will not convert cleanly.
	HeaderRow int
}

// FormulaReport describes the formula of one column.
type FormulaReport struct {
	Column     string
	Cell       string
	Positional string
	Symbolic   string
	References []string
	// Divergent counts rows whose formula differs from the first one.
	Divergent int
}

// ColumnHint flags a column whose values look temporal or percent-like
// although its name is not configured as such.
type ColumnHint struct {
	Index  int
	Column string
	Class  normalize.Class
}

func (h ColumnHint) String() string {
	return fmt.Sprintf("column %q looks like a %s column", h.Column, h.Class)
}

// Inspect reports the layout and formulas of a workbook without converting
// it.
func Inspect(path string, opts Options) ([]SheetReport, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rules := opts.Rules
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		rules.Date1904 = *props.Date1904
	}

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrEmptyWorkbook
	}

	dir := formula.NewDirectory()
	sheets := make([]*sheetData, 0, len(names))
	display := make(map[string][][]string, len(names))
	for _, name := range names {
		sd, err := readSheet(f, name, rules.Date1904)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		sheets = append(sheets, sd)
		display[name] = rows
		dir.Add(sd.name, sd.columns, len(sd.rows))
	}

	reports := make([]SheetReport, 0, len(sheets))
	for _, sd := range sheets {
		rows := display[sd.name]
		report := SheetReport{
			Name:      sd.name,
			Columns:   sd.columns,
			Rows:      len(sd.rows),
			Extent:    extent(rows),
			HeaderRow: findHeaderRow(rows) + 1,
		}
		if len(rows) > 1 {
			report.FirstRow = rows[1]
		}
		if len(rows) > 0 {
			report.Hints = AutoDetectColumns(rows[0], rows[1:], rules)
		}
		formulas, err := inspectFormulas(sd, dir)
		if err != nil {
			return nil, err
		}
		report.Formulas = formulas
		reports = append(reports, report)
	}
	return reports, nil
}

func inspectFormulas(sd *sheetData, dir *formula.Directory) ([]FormulaReport, error) {
	var reports []FormulaReport
	for c, column := range sd.columns {
		var fr *FormulaReport
		for i, cells := range sd.rows {
			if c >= len(cells) || !cells[c].HasFormula() {
				continue
			}
			rowNum := coord.FirstDataRow + i
			positional := cells[c].Formula
			symbolic, err := formula.Decompile(positional, sd.columns, rowNum, dir)
			if err != nil {
				return nil, &ConversionError{Sheet: sd.name, Column: column, Row: rowNum, Formula: positional, Err: err}
			}
			if fr == nil {
				cell, _ := coord.CellName(c, rowNum)
				fr = &FormulaReport{
					Column:     column,
					Cell:       cell,
					Positional: positional,
					Symbolic:   symbolic,
					References: FormulaReferences(positional),
				}
				continue
			}
			if symbolic != fr.Symbolic {
				fr.Divergent++
			}
		}
		if fr != nil {
			reports = append(reports, *fr)
		}
	}
	return reports, nil
}

// FormulaReferences lists the cell and range references of a positional
// formula in order of appearance.
func FormulaReferences(positional string) []string {
	ps := efp.ExcelParser()
	var refs []string
	for _, tok := range ps.Parse(strings.TrimPrefix(positional, "=")) {
		if tok.TType == efp.TokenTypeOperand && tok.TSubType == efp.TokenSubTypeRange {
			refs = append(refs, tok.TValue)
		}
	}
	return refs
}

func extent(rows [][]string) string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	if width == 0 || len(rows) == 0 {
		return ""
	}
	end, err := coord.CellName(width-1, len(rows))
	if err != nil {
		return ""
	}
	return "A1:" + end
}

// AutoDetectColumns finds plain columns whose first non-empty values all
// look like dates, months or percentages.
func AutoDetectColumns(headers []string, rows [][]string, rules normalize.Rules) []ColumnHint {
	var hints []ColumnHint

	for i, header := range headers {
		if header == "" || rules.Classify(header) != normalize.ClassPlain {
			continue
		}

		class := normalize.ClassPlain
		checkedRows := 0
		for j := 0; j < len(rows) && j < RowDetectionLimit; j++ {
			if i >= len(rows[j]) {
				continue
			}
			val := strings.TrimSpace(rows[j][i])
			if val == "" {
				continue
			}
			got := detectClass(val)
			if got == normalize.ClassPlain || (class != normalize.ClassPlain && got != class) {
				class = normalize.ClassPlain
				checkedRows = 0
				break
			}
			class = got
			checkedRows++
		}

		if class != normalize.ClassPlain && checkedRows > 0 {
			hints = append(hints, ColumnHint{Index: i, Column: header, Class: class})
		}
	}

	return hints
}

func detectClass(val string) normalize.Class {
	if _, ok := normalize.PercentToFraction(val); ok {
		return normalize.ClassPercent
	}
	if d := normalize.NormalizeDate(val, false); d != val || isCanonicalDate(val) {
		return normalize.ClassDate
	}
	if m := normalize.NormalizeDate(val, true); m != val || isCanonicalMonth(val) {
		return normalize.ClassMonth
	}
	return normalize.ClassPlain
}

func isCanonicalDate(s string) bool {
	return len(s) == len("2006-01-02") && normalize.NormalizeDate(s, true) != s
}

func isCanonicalMonth(s string) bool {
	return len(s) == len("2006-01") && normalize.NormalizeDate(s, true) == s && normalize.NormalizeDate(s+"-01", true) == s
}

// findHeaderRow locates the row that appears to be a header by finding the
// row with the most non-empty text cells. It returns 0 when nothing looks
// like a header.
func findHeaderRow(rows [][]string) int {
	maxNonEmpty := 0
	headerIdx := 0

	searchLimit := min(len(rows), RowDetectionLimit*2)

	for i := 0; i < searchLimit; i++ {
		nonEmptyCount := 0
		hasText := false

		for _, cell := range rows[i] {
			trimmed := strings.TrimSpace(cell)
			if trimmed != "" {
				nonEmptyCount++
				if containsLetters(trimmed) {
					hasText = true
				}
			}
		}

		// Header should have multiple columns AND contain text
		if nonEmptyCount >= 2 && hasText && nonEmptyCount > maxNonEmpty {
			maxNonEmpty = nonEmptyCount
			headerIdx = i
		}
	}

	return headerIdx
}

// containsLetters checks if a string contains any letter, in any script.
func containsLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
