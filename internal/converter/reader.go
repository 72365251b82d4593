package converter

import (
	"strconv"
	"strings"
	"time"

	"github.com/nconklindev/sheetsync/internal/coord"
	"github.com/nconklindev/sheetsync/internal/normalize"

	"github.com/xuri/excelize/v2"
)

// sheetData is one sheet read into codec-neutral cells.
type sheetData struct {
	name    string
	columns []string
	rows    [][]normalize.Cell
}

// builtinFormats maps the builtin number format ids that matter when
// reading values.
var builtinFormats = map[int]string{
	2:  "0.00",
	9:  "0%",
	10: "0.00%",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	22: "m/d/yy h:mm",
	49: "@",
}

// cellReader reads cells of one sheet, caching number formats per style.
type cellReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	formats  map[int]string
}

func readSheet(f *excelize.File, name string, date1904 bool) (*sheetData, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}

	sd := &sheetData{name: name, columns: []string{}}
	if len(rows) == 0 {
		return sd, nil
	}
	sd.columns = append(sd.columns, rows[0]...)

	cr := &cellReader{f: f, sheet: name, date1904: date1904, formats: make(map[int]string)}
	for r := 1; r < len(rows); r++ {
		cells := make([]normalize.Cell, len(sd.columns))
		for c := range sd.columns {
			cell, err := cr.read(c, r+1)
			if err != nil {
				return nil, err
			}
			cells[c] = cell
		}
		sd.rows = append(sd.rows, cells)
	}
	return sd, nil
}

// read returns the cell at 0-based column col and 1-based row.
func (cr *cellReader) read(col, row int) (normalize.Cell, error) {
	name, err := coord.CellName(col, row)
	if err != nil {
		return normalize.Cell{}, err
	}

	typ, err := cr.f.GetCellType(cr.sheet, name)
	if err != nil {
		return normalize.Cell{}, err
	}
	raw, err := cr.f.GetCellValue(cr.sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		return normalize.Cell{}, err
	}
	display, err := cr.f.GetCellValue(cr.sheet, name)
	if err != nil {
		return normalize.Cell{}, err
	}
	formula, err := cr.f.GetCellFormula(cr.sheet, name)
	if err != nil {
		return normalize.Cell{}, err
	}

	cell := normalize.Cell{
		Formula: strings.TrimPrefix(formula, "="),
		Format:  cr.format(name),
		Display: display,
	}

	switch typ {
	case excelize.CellTypeBool:
		cell.Kind = normalize.KindBool
		cell.Bool = raw == "1" || strings.EqualFold(raw, "TRUE")
	case excelize.CellTypeDate:
		if t, ok := parseISOTime(raw); ok {
			cell.Kind, cell.Time = normalize.KindDate, t
		} else {
			cell.Kind, cell.Str = normalize.KindString, raw
		}
	case excelize.CellTypeError:
		cell.Kind, cell.Str = normalize.KindError, raw
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		cell.Kind, cell.Str = normalize.KindString, raw
	default:
		if raw == "" {
			cell.Kind = normalize.KindEmpty
			break
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			cell.Kind, cell.Str = normalize.KindString, raw
			break
		}
		cell.Kind, cell.Num = normalize.KindNumber, n
		if isDateFormat(cell.Format) {
			if t, err := excelize.ExcelDateToTime(n, cr.date1904); err == nil {
				cell.Kind, cell.Time = normalize.KindDate, t
			}
		}
	}
	return cell, nil
}

// format returns the number format code of a cell, or "".
func (cr *cellReader) format(cell string) string {
	idx, err := cr.f.GetCellStyle(cr.sheet, cell)
	if err != nil || idx == 0 {
		return ""
	}
	if code, ok := cr.formats[idx]; ok {
		return code
	}

	code := ""
	if style, err := cr.f.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			code = *style.CustomNumFmt
		} else {
			code = builtinFormats[style.NumFmt]
		}
	}
	cr.formats[idx] = code
	return code
}

// isDateFormat reports whether a number format code renders dates.
// Quoted literals and bracketed sections are ignored.
func isDateFormat(code string) bool {
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'y' || r == 'Y' || r == 'd' || r == 'D':
			return true
		}
	}
	return false
}

func parseISOTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
