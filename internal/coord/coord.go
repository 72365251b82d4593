// Package coord converts between zero-based column indices and spreadsheet
// column letters, and between coordinates and cell names.
package coord

import (
	"fmt"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	// HeaderRow is the 1-based spreadsheet row holding column names.
	HeaderRow = 1
	// FirstDataRow is the 1-based spreadsheet row of the first data record.
	FirstDataRow = HeaderRow + 1

	// MaxColumns is the number of columns a worksheet can hold (A to XFD).
	MaxColumns = excelize.MaxColumns
)

// FormatError reports column letters that cannot be decoded.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid column letters %q", e.Input)
}

// IndexToLetter converts a 0-based column index to letters (0 -> A, 26 -> AA).
// Negative indices yield an empty string.
func IndexToLetter(i int) string {
	var buf []byte
	for i >= 0 {
		buf = append(buf, byte('A'+i%26))
		i = i/26 - 1
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return string(buf)
}

// LetterToIndex converts column letters to a 0-based column index.
// Only upper-case A-Z are accepted; letters whose index does not fit in an
// int are rejected.
func LetterToIndex(letters string) (int, error) {
	if letters == "" {
		return 0, &FormatError{Input: letters}
	}
	index := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if c < 'A' || c > 'Z' {
			return 0, &FormatError{Input: letters}
		}
		if index > (math.MaxInt-26)/26 {
			return 0, &FormatError{Input: letters}
		}
		index = index*26 + int(c-'A'+1)
	}
	return index - 1, nil
}

// InSheet reports whether letters name a column a worksheet can hold.
func InSheet(letters string) bool {
	i, err := LetterToIndex(letters)
	return err == nil && i < MaxColumns
}

// CellName returns the name of the cell at a 0-based column index and a
// 1-based row number, e.g. CellName(2, 5) == "C5".
func CellName(col, row int) (string, error) {
	return excelize.CoordinatesToCellName(col+1, row)
}

// ParseCell splits a cell name like "$C$5" into a 0-based column index and a
// 1-based row number.
func ParseCell(name string) (col, row int, err error) {
	col, row, err = excelize.CellNameToCoordinates(name)
	if err != nil {
		return 0, 0, err
	}
	return col - 1, row, nil
}

// Ref builds an A1 style reference from a 0-based column index and a 1-based
// row, with optional absolute markers.
func Ref(col, row int, absolute bool) string {
	if absolute {
		return "$" + IndexToLetter(col) + "$" + strconv.Itoa(row)
	}
	return IndexToLetter(col) + strconv.Itoa(row)
}

// DataEndRow returns the last 1-based row of a column holding rowCount data
// records. An empty column still spans its first data row.
func DataEndRow(rowCount int) int {
	if rowCount < 1 {
		return FirstDataRow
	}
	return FirstDataRow + rowCount - 1
}
