package converter

import (
	"errors"
	"fmt"
)

// ErrEmptyWorkbook indicates a workbook or dataset without sheets.
var ErrEmptyWorkbook = errors.New("no sheets to convert")

// ErrUnsupportedFile indicates an input that is neither .json nor .xlsx.
var ErrUnsupportedFile = errors.New("unsupported file type")

// ConversionError reports a formula that could not be translated. The whole
// conversion is aborted so no half-translated formula is ever written.
type ConversionError struct {
	Sheet   string
	Column  string
	Row     int // 1-based spreadsheet row, 0 if not row specific
	Formula string
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("sheet %q column %q row %d: formula %q: %v", e.Sheet, e.Column, e.Row, e.Formula, e.Err)
	}
	return fmt.Sprintf("sheet %q column %q: formula %q: %v", e.Sheet, e.Column, e.Formula, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// errDivergentFormula is wrapped by a ConversionError in strict mode when the
// rows of one column do not share the same symbolic formula.
var errDivergentFormula = errors.New("rows of this column hold different formulas")

// IsDivergentFormula reports whether err was caused by diverging formulas.
func IsDivergentFormula(err error) bool {
	return errors.Is(err, errDivergentFormula)
}
