package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetsync/internal/coord"

	"golang.org/x/text/unicode/norm"
)

// Compile turns a symbolic formula into the positional formula of one data
// row.
//
// "Sheet!Column" becomes the absolute range covering every data row of that
// column, e.g. "采购明细!$B$2:$B$4"; a bare column name of the active sheet
// becomes the cell of that column in row, e.g. "C7". Any other text is
// copied unchanged.
func Compile(symbolic string, columns []string, row int, dir *Directory) (string, error) {
	if row < coord.FirstDataRow {
		return "", fmt.Errorf("row %d is not a data row", row)
	}
	if dir == nil {
		dir = NewDirectory()
	}

	var b strings.Builder
	for _, tok := range LexSymbolic(symbolic, columns, dir) {
		switch tok.Type {
		case TokenSheetColumn:
			info, _ := dir.Lookup(tok.Sheet)
			idx := info.ColumnIndex(tok.Column)
			b.WriteString(quoteSheet(info.Name))
			b.WriteRune(charExclaim)
			b.WriteString(coord.Ref(idx, coord.FirstDataRow, true))
			b.WriteByte(':')
			b.WriteString(coord.Ref(idx, coord.DataEndRow(info.RowCount), true))
		case TokenColumn:
			b.WriteString(coord.IndexToLetter(columnIndex(columns, tok.Column)))
			b.WriteString(strconv.Itoa(row))
		default:
			b.WriteString(tok.Value)
		}
	}
	return b.String(), nil
}

// columnIndex returns the first position of column in columns, or -1.
func columnIndex(columns []string, column string) int {
	for i, c := range columns {
		if norm.NFC.String(c) == column {
			return i
		}
	}
	return -1
}
