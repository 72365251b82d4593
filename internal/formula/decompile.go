package formula

import (
	"fmt"
	"strings"

	"github.com/nconklindev/sheetsync/internal/coord"
)

// Decompile turns the positional formula read from one cell back into its
// symbolic form.
//
// An absolute single-column range into a known sheet ("采购明细!$B$2:$B$4")
// becomes "Sheet!Column". A same-sheet cell in the cell's own row ("C7" read
// from row 7) becomes the column name. References to other rows, unknown
// sheets or columns, columns with numeric names such as "2024", and
// multi-column ranges are kept as written.
func Decompile(positional string, columns []string, row int, dir *Directory) (string, error) {
	if dir == nil {
		dir = NewDirectory()
	}

	var b strings.Builder
	for _, tok := range LexPositional(positional) {
		switch tok.Type {
		case TokenSheetRange:
			s, err := collapseRange(tok, dir)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case TokenCell:
			s, err := cellToColumn(tok, columns, row)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		default:
			b.WriteString(tok.Value)
		}
	}
	return b.String(), nil
}

func collapseRange(tok Token, dir *Directory) (string, error) {
	if !tok.Ref.absolute() || !tok.End.absolute() || tok.Ref.Letters != tok.End.Letters {
		return tok.Value, nil
	}
	info, ok := dir.Lookup(tok.Sheet)
	if !ok {
		return tok.Value, nil
	}
	idx, err := coord.LetterToIndex(tok.Ref.Letters)
	if err != nil {
		return "", fmt.Errorf("range %s: %w", tok.Value, err)
	}
	if idx < 0 || idx >= len(info.Columns) || info.Columns[idx] == "" {
		return tok.Value, nil
	}
	name := info.Name + string(charExclaim) + info.Columns[idx]
	if !isReferenceName(name) {
		return tok.Value, nil
	}
	return name, nil
}

func cellToColumn(tok Token, columns []string, row int) (string, error) {
	if tok.Ref.Row != row {
		return tok.Value, nil
	}
	idx, err := coord.LetterToIndex(tok.Ref.Letters)
	if err != nil {
		return "", fmt.Errorf("cell %s: %w", tok.Value, err)
	}
	// A column the symbolic lexer would read as a number keeps its cell.
	if idx < 0 || idx >= len(columns) || !isReferenceName(columns[idx]) {
		return tok.Value, nil
	}
	return columns[idx], nil
}
