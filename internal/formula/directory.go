// Package formula translates spreadsheet formulas between a symbolic form,
// which names columns ("销量*售价", "销售明细!销量"), and a positional form,
// which uses cell coordinates ("B2*C2", "销售明细!$B$2:$B$4").
//
// Both directions work on a token stream rather than on raw text, so a
// column name is only ever replaced where it stands as a whole token.
package formula

import (
	"github.com/nconklindev/sheetsync/internal/types"

	"golang.org/x/text/unicode/norm"
)

// SheetInfo is what the directory knows about one sheet.
type SheetInfo struct {
	Name     string
	Columns  []string
	RowCount int

	index map[string]int
}

// ColumnIndex returns the 0-based position of a column, or -1.
func (s *SheetInfo) ColumnIndex(column string) int {
	if i, ok := s.index[norm.NFC.String(column)]; ok {
		return i
	}
	return -1
}

// Directory maps sheet names to their columns and data row counts. It is
// built once per conversion and only read afterwards.
type Directory struct {
	sheets map[string]*SheetInfo
	order  []string
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{sheets: make(map[string]*SheetInfo)}
}

// DirectoryFor builds the directory of a dataset.
func DirectoryFor(sheets []types.SheetSchema) *Directory {
	d := NewDirectory()
	for _, s := range sheets {
		d.Add(s.Name, s.Columns, len(s.Rows))
	}
	return d
}

// Add registers a sheet, replacing an earlier entry with the same name.
// The first occurrence of a duplicated column name wins.
func (d *Directory) Add(sheet string, columns []string, rowCount int) {
	sheet = norm.NFC.String(sheet)
	info := &SheetInfo{
		Name:     sheet,
		Columns:  make([]string, len(columns)),
		RowCount: rowCount,
		index:    make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		c = norm.NFC.String(c)
		info.Columns[i] = c
		if _, dup := info.index[c]; !dup && c != "" {
			info.index[c] = i
		}
	}
	if _, ok := d.sheets[sheet]; !ok {
		d.order = append(d.order, sheet)
	}
	d.sheets[sheet] = info
}

// Lookup returns the entry of a sheet.
func (d *Directory) Lookup(sheet string) (*SheetInfo, bool) {
	info, ok := d.sheets[norm.NFC.String(sheet)]
	return info, ok
}

// Sheets returns the sheet names in registration order.
func (d *Directory) Sheets() []string {
	return append([]string(nil), d.order...)
}

// Len returns the number of sheets.
func (d *Directory) Len() int { return len(d.order) }
